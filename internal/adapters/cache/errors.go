package cache

import "errors"

// ErrUnavailable reports that the cache backend could not be reached.
var ErrUnavailable = errors.New("cache unavailable")
