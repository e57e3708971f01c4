package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSubmission      = errors.New("job submission failed")
	ErrStatusFetch     = errors.New("job status fetch failed")
	ErrTerminalFailure = errors.New("job reported failure")
)
