package filter

import "errors"

// Sentinel kinds for filter errors.
var (
	ErrInvalidExpression = errors.New("invalid filter expression")
	ErrEvaluation        = errors.New("filter evaluation failed")
)
