package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/events"
	"github.com/kilianp07/drplan/core/model"
	"github.com/kilianp07/drplan/core/planstore"
)

// allSignals is large enough to list every signal of one plan.
const allSignals = math.MaxInt32

// SignalID builds the identifier of the signal sent to one cohort of a plan.
func SignalID(planID, cohortID string) string {
	return fmt.Sprintf("SIG_%s_%s", planID, cohortID)
}

// newSignal builds the dr_event signal for one allocation.
func (c *Coordinator) newSignal(plan model.DRPlan, a model.CohortAllocation) model.DRSignal {
	return model.DRSignal{
		ID:                SignalID(plan.ID, a.CohortID),
		PlanID:            plan.ID,
		CohortID:          a.CohortID,
		SignalType:        model.SignalDREvent,
		CreatedAt:         c.clock.Now(),
		EventStart:        plan.WindowStart,
		EventEnd:          plan.WindowEnd,
		TargetReductionKW: math.Round(a.TargetMW*1000*100) / 100,
		Message:           a.MessageTemplate,
		Status:            model.SignalPending,
	}
}

// dispatch publishes the signal for one allocation and waits for its ack.
// Failures are recorded on the signal rather than returned.
func (c *Coordinator) dispatch(ctx context.Context, plan model.DRPlan, a model.CohortAllocation) model.DRSignal {
	sig := c.newSignal(plan, a)
	start := c.clock.Now()
	var (
		acked   bool
		sendErr error
	)
	msgID, err := c.publisher.SendSignal(ctx, sig)
	if err != nil {
		sendErr = err
		sig.Metadata = map[string]string{"error": err.Error()}
		c.log.Warnf("signal %s not sent: %v", sig.ID, err)
	} else {
		sentAt := c.clock.Now()
		sig.SentAt = &sentAt
		sig.Status = model.SignalSent
		sig.Metadata = map[string]string{"message_id": msgID}
		acked, err = c.publisher.WaitForAck(ctx, msgID, c.ackWait)
		switch {
		case acked:
			sig.Status = model.SignalAcknowledged
		case err != nil:
			sig.Metadata["ack_error"] = err.Error()
			c.log.Warnf("signal %s not acknowledged: %v", sig.ID, err)
		}
	}
	latency := c.clock.Now().Sub(start)

	if err := c.store.SaveSignal(ctx, sig); err != nil {
		c.log.Errorf("save signal %s: %v", sig.ID, err)
	}
	detail := "sent"
	if sendErr != nil {
		detail = sendErr.Error()
	}
	c.record(ctx, planstore.AuditRecord{
		Action:   planstore.ActionDispatch,
		PlanID:   plan.ID,
		SignalID: sig.ID,
		Status:   string(sig.Status),
		Detail:   detail,
	})
	c.publish(events.SignalEvent{
		Signal:       sig,
		Acknowledged: acked,
		Err:          sendErr,
		Latency:      latency,
		Time:         c.clock.Now(),
	})
	return sig
}

// Signal returns one signal.
func (c *Coordinator) Signal(ctx context.Context, signalID string) (model.DRSignal, error) {
	s, err := c.store.GetSignal(ctx, signalID)
	if err != nil {
		return model.DRSignal{}, mapStoreErr(err, "signal", signalID)
	}
	return s, nil
}

// Signals lists signals newest first.
func (c *Coordinator) Signals(ctx context.Context, q planstore.SignalQuery) ([]model.DRSignal, error) {
	return c.store.ListSignals(ctx, q)
}

// SimulateResponse answers a signal as its cohort would: everyone accepts at
// the baseline acceptance rate of the cohort.
func (c *Coordinator) SimulateResponse(ctx context.Context, signalID string) (model.SignalResponse, error) {
	sig, err := c.Signal(ctx, signalID)
	if err != nil {
		return model.SignalResponse{}, err
	}
	co, err := cohort.Find(ctx, c.cohorts, sig.CohortID)
	if err != nil {
		if errors.Is(err, cohort.ErrNotFound) {
			return model.SignalResponse{}, fmt.Errorf("%w: cohort %s", ErrNotFound, sig.CohortID)
		}
		return model.SignalResponse{}, err
	}
	rate := co.BaselineAcceptanceRate
	resp := model.SignalResponse{
		SignalID:              sig.ID,
		CohortID:              sig.CohortID,
		RespondedAt:           c.clock.Now(),
		Accepted:              true,
		ParticipatingAccounts: int(math.Floor(float64(co.NumAccounts) * rate)),
		CommittedKW:           math.Round(sig.TargetReductionKW*rate*100) / 100,
	}
	if _, err := c.RecordResponse(ctx, resp); err != nil {
		return model.SignalResponse{}, err
	}
	return resp, nil
}

// RecordResponse stores a cohort response on its signal. When every signal
// of an in-progress plan has a response, the plan is completed and its
// execution closed with the realized reduction.
func (c *Coordinator) RecordResponse(ctx context.Context, resp model.SignalResponse) (model.DRSignal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, err := c.Signal(ctx, resp.SignalID)
	if err != nil {
		return model.DRSignal{}, err
	}
	if sig.Response != nil {
		return model.DRSignal{}, fmt.Errorf("%w: signal %s already has a response", ErrConflict, sig.ID)
	}
	if resp.CohortID == "" {
		resp.CohortID = sig.CohortID
	}
	if resp.RespondedAt.IsZero() {
		resp.RespondedAt = c.clock.Now()
	}
	sig.Response = &resp
	if resp.Accepted {
		sig.Status = model.SignalAccepted
	} else {
		sig.Status = model.SignalDeclined
	}
	if err := c.store.SaveSignal(ctx, sig); err != nil {
		return model.DRSignal{}, fmt.Errorf("save signal %s: %w", sig.ID, err)
	}
	c.record(ctx, planstore.AuditRecord{
		Action:   planstore.ActionResponse,
		PlanID:   sig.PlanID,
		SignalID: sig.ID,
		Status:   string(sig.Status),
		Detail:   fmt.Sprintf("committed %.2f kW", resp.CommittedKW),
	})
	c.publish(events.ResponseEvent{Signal: sig, Response: resp, Time: c.clock.Now()})

	if err := c.maybeComplete(ctx, sig.PlanID); err != nil {
		c.log.Errorf("complete plan %s: %v", sig.PlanID, err)
	}
	return sig, nil
}

func (c *Coordinator) handleResponse(resp model.SignalResponse) {
	if _, err := c.RecordResponse(context.Background(), resp); err != nil {
		c.log.Warnf("response for %s: %v", resp.SignalID, err)
	}
}

// maybeComplete closes the plan once all of its signals were answered.
// Callers hold c.mu.
func (c *Coordinator) maybeComplete(ctx context.Context, planID string) error {
	plan, err := c.store.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status != model.PlanInProgress {
		return nil
	}
	signals, err := c.store.ListSignals(ctx, planstore.SignalQuery{PlanID: planID, Limit: allSignals})
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		return nil
	}
	names := make(map[string]string, len(plan.CohortAllocations))
	for _, a := range plan.CohortAllocations {
		names[a.CohortID] = a.CohortName
	}
	var (
		committedKW float64
		accepted    int
		results     = make([]model.CohortResult, 0, len(signals))
	)
	for _, s := range signals {
		if s.Response == nil {
			return nil
		}
		committedKW += s.Response.CommittedKW
		if s.Response.Accepted {
			accepted++
		}
		results = append(results, model.CohortResult{
			CohortID:   s.CohortID,
			CohortName: names[s.CohortID],
			AchievedMW: s.Response.CommittedKW / 1000,
		})
	}
	achieved := math.Round(committedKW/1000*100) / 100
	acceptance := float64(accepted) / float64(len(signals))

	from := plan.Status
	plan.Status = model.PlanCompleted
	if err := c.store.SavePlan(ctx, plan); err != nil {
		return err
	}
	c.record(ctx, planstore.AuditRecord{
		Action: planstore.ActionCompleted,
		PlanID: plan.ID,
		Status: string(plan.Status),
		Detail: fmt.Sprintf("realized %.2f of %.2f MW", achieved, plan.TargetMWTotal),
	})
	c.publish(events.PlanEvent{Plan: plan, From: from, Time: c.clock.Now()})

	exec, err := c.history.ForPlan(ctx, plan.ID)
	if err != nil {
		return err
	}
	notes := fmt.Sprintf("%d of %d cohorts accepted", accepted, len(signals))
	_, err = c.history.Complete(ctx, exec.ID, achieved, acceptance, notes, results...)
	return err
}
