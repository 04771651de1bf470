// Package constraints validates proposed outreach actions against standing
// resource state and mutates that state as actions are booked, executed and
// released.
//
// Check runs five independent dimensions (capacity, contact limits,
// compliance blackouts, budget, territory) and reports itemized violations;
// only error-severity violations fail the check. Constraint violations are
// expected outcomes, surfaced as data, never as Go errors — errors from this
// package mean infrastructure or not-found failures.
//
// All counter mutations are delegated to repositories that implement them as
// atomic read-check-write statements against a single resource key, so
// concurrent bookings racing for the same capacity slot or budget pool
// cannot lose updates.
package constraints
