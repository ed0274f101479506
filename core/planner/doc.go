// Package planner turns a grid snapshot and a cohort catalog into a
// demand-response plan.
//
// The pipeline runs in a fixed order: Analyze classifies the grid situation,
// ScoreCohorts ranks eligible cohorts, Allocate distributes the MW target
// greedily and Confidence estimates how likely the plan is to deliver.
// Assemble chains these steps without any I/O; Planner wraps it with the
// grid and cohort collaborators and an injectable clock.
package planner
