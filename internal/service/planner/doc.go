// Package planner owns the execution-plan lifecycle: creating a plan from a
// batch of allocations, booking it against the constraint manager, running
// allocations with simulated outcomes, and suggesting rebalances when actual
// performance drifts from prediction.
package planner
