package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	// ErrDataLoad reports a missing source, an absent required column or a
	// malformed row. It aborts the fit that triggered it.
	ErrDataLoad = errors.New("data load failed")

	// ErrMissingColumn is wrapped together with ErrDataLoad when the header
	// lacks a required column.
	ErrMissingColumn = errors.New("required column missing")
)
