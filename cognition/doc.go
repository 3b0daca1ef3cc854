// Package cognition holds the reasoning components that precede and gate
// execution: the mode classifier deciding how much deliberation a request
// deserves, the planner turning a request into ordered steps, and the critic
// that condenses plans and grades step results. All three are failure-open:
// a failing model call yields a safe default (deep mode, identity plan,
// acceptable grade) instead of aborting the run.
package cognition
