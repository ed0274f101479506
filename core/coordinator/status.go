package coordinator

import (
	"context"
	"math"

	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planstore"
)

// StatusReport compares what a plan targeted with what its cohorts committed.
type StatusReport struct {
	PlanID         string           `json:"plan_id"`
	Status         model.PlanStatus `json:"status"`
	TargetMW       float64          `json:"target_mw"`
	PredictedMW    float64          `json:"predicted_mw"`
	RealizedMW     float64          `json:"realized_mw"`
	SignalsSent    int              `json:"num_signals_sent"`
	Responses      int              `json:"num_responses"`
	AcceptanceRate float64          `json:"acceptance_rate"`
}

// Status reports the realized reduction of a plan from its signal responses.
func (c *Coordinator) Status(ctx context.Context, planID string) (StatusReport, error) {
	plan, err := c.Get(ctx, planID)
	if err != nil {
		return StatusReport{}, err
	}
	signals, err := c.store.ListSignals(ctx, planstore.SignalQuery{PlanID: planID, Limit: allSignals})
	if err != nil {
		return StatusReport{}, err
	}
	r := StatusReport{
		PlanID:      plan.ID,
		Status:      plan.Status,
		TargetMW:    plan.TargetMWTotal,
		PredictedMW: plan.PredictedMWTotal,
	}
	var committedKW float64
	accepted := 0
	for _, s := range signals {
		if s.SentAt != nil {
			r.SignalsSent++
		}
		if s.Response == nil {
			continue
		}
		r.Responses++
		committedKW += s.Response.CommittedKW
		if s.Response.Accepted {
			accepted++
		}
	}
	r.RealizedMW = math.Round(committedKW/1000*100) / 100
	if r.Responses > 0 {
		r.AcceptanceRate = float64(accepted) / float64(r.Responses)
	}
	return r, nil
}
