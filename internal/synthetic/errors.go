package synthetic

import "errors"

var (
	// ErrInvalidProfile reports a profile that cannot produce a valid dataset.
	ErrInvalidProfile = errors.New("invalid synthetic profile")
	// ErrLoadProfile reports a profile file that cannot be read or parsed.
	ErrLoadProfile = errors.New("failed to load synthetic profile")
)
