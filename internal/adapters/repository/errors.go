package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotReady    = errors.New("no snapshot installed")
	ErrNilSnapshot = errors.New("nil snapshot")
)
