package events

import (
	"time"

	"github.com/kilianp07/drplan/core/model"
)

// PlanEvent is published when a plan is proposed or changes status. From is
// empty for a new proposal.
type PlanEvent struct {
	Plan  model.DRPlan
	From  model.PlanStatus
	Actor string
	Time  time.Time
}

// Proposed reports whether the event announces a new plan.
func (e PlanEvent) Proposed() bool {
	return e.From == ""
}
