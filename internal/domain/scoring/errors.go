package scoring

import "errors"

// Sentinel kinds for scoring errors. Soft outcomes such as no-data and
// no-match are result statuses, not errors.
var (
	// ErrQuery reports an invalid query: no usable skills, a negative budget or
	// a filter expression that does not compile or evaluate.
	ErrQuery = errors.New("invalid query")

	// ErrModelNotReady reports scoring before any successful fit.
	ErrModelNotReady = errors.New("model not ready")
)
