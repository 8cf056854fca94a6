package collab

import "errors"

var (
	// ErrFactorize reports that the singular value decomposition did not converge.
	ErrFactorize = errors.New("rating matrix factorization failed")
	// ErrInvalidRating reports a rating that is NaN or infinite.
	ErrInvalidRating = errors.New("rating is not a finite number")
)
