package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/drplan/core/events"
	coremetrics "github.com/kilianp07/drplan/core/metrics"
	"github.com/kilianp07/drplan/infra/logger"
	"github.com/kilianp07/drplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// lifecycle events. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.PlanEvent:
		if e.Proposed() {
			p := e.Plan
			return sink.RecordPlan(coremetrics.PlanRecord{
				PlanID:      p.ID,
				Strategy:    string(p.Strategy),
				Stress:      string(p.SituationSummary.StressLevel),
				TargetMW:    p.TargetMWTotal,
				PredictedMW: p.PredictedMWTotal,
				Confidence:  p.ConfidenceScore,
				Allocations: len(p.CohortAllocations),
				Degraded:    p.SituationSummary.Degraded,
				Time:        eventTime(e.Time),
			})
		}
		if r, ok := sink.(coremetrics.TransitionRecorder); ok {
			return r.RecordTransition(coremetrics.TransitionRecord{
				PlanID: e.Plan.ID,
				From:   string(e.From),
				To:     string(e.Plan.Status),
				Actor:  e.Actor,
				Time:   eventTime(e.Time),
			})
		}
	case events.SignalEvent:
		if r, ok := sink.(coremetrics.SignalRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			return r.RecordSignal(coremetrics.SignalRecord{
				SignalID:     e.Signal.ID,
				PlanID:       e.Signal.PlanID,
				CohortID:     e.Signal.CohortID,
				Type:         string(e.Signal.SignalType),
				Status:       string(e.Signal.Status),
				TargetKW:     e.Signal.TargetReductionKW,
				Acknowledged: e.Acknowledged,
				Latency:      e.Latency,
				Error:        errStr,
				Time:         eventTime(e.Time),
			})
		}
	case events.ResponseEvent:
		if r, ok := sink.(coremetrics.ResponseRecorder); ok {
			return r.RecordResponse(coremetrics.ResponseRecord{
				SignalID:              e.Signal.ID,
				PlanID:                e.Signal.PlanID,
				CohortID:              e.Response.CohortID,
				Accepted:              e.Response.Accepted,
				CommittedKW:           e.Response.CommittedKW,
				ParticipatingAccounts: e.Response.ParticipatingAccounts,
				Time:                  eventTime(e.Time),
			})
		}
	}
	return nil
}

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
