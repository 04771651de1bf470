// Package nba implements the next-best-action decision engine.
//
// The engine consumes channel health classifications (and optionally a
// message-saturation summary) for one HCP and produces a single recommended
// channel/action pair with confidence, urgency and timing. Batch helpers
// generate, prioritize and summarize recommendations across a cohort.
//
// Decision logic lives in engine.go as pure functions; service.go wires the
// engine to the profile repository and the saturation provider.
package nba
