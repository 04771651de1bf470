package planner

import "errors"

var (
	// ErrNotFound indicates the requested plan or allocation does not exist.
	ErrNotFound = errors.New("plan not found")

	// ErrInvalidTransition indicates the plan is not in a state that permits
	// the requested operation.
	ErrInvalidTransition = errors.New("invalid plan state transition")

	// ErrNothingBooked indicates booking skipped every allocation; the plan
	// stays in draft.
	ErrNothingBooked = errors.New("no allocations could be booked")

	// ErrPlanLocked indicates another process holds the plan's execution lock.
	ErrPlanLocked = errors.New("plan is locked by another executor")

	// ErrNoAllocations indicates a plan was created with an empty batch.
	ErrNoAllocations = errors.New("plan requires at least one allocation")
)
