// Package events defines the plan lifecycle events emitted on the event bus.
//
// Available event types:
//   - PlanEvent: a plan was proposed or changed status
//   - SignalEvent: a signal was dispatched to a cohort
//   - ResponseEvent: a cohort answered a signal
package events
