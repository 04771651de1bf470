package constraints

import "errors"

// Sentinel errors for the constraints service layer.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrCapacityExhausted  = errors.New("channel capacity exhausted")
	ErrInsufficientBudget = errors.New("insufficient budget available")
	ErrInvalidChannel     = errors.New("invalid channel")
)
