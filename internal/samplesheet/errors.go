package samplesheet

import "errors"

// Sentinel errors for sample-sheet runs.
var (
	ErrConfig   = errors.New("invalid sample sheet config")
	ErrService  = errors.New("service request failed")
	ErrMismatch = errors.New("service ranking mismatch")
)
