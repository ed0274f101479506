// Package coordinator drives a plan through its lifecycle: proposal, operator
// approval or rejection, signal dispatch to cohorts, response collection and
// completion. Every transition is persisted, audited and published on the
// event bus.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/drplan/core/cohort"
	"github.com/kilianp07/drplan/core/events"
	"github.com/kilianp07/drplan/core/history"
	"github.com/kilianp07/drplan/core/logger"
	"github.com/kilianp07/drplan/core/model"
	coremqtt "github.com/kilianp07/drplan/core/mqtt"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
	"github.com/kilianp07/drplan/internal/eventbus"
)

var (
	// ErrNotFound is returned when a plan, signal or cohort does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the requested action does not fit the
	// current state of the plan or signal.
	ErrConflict = errors.New("conflict")
)

// DefaultAckTimeout bounds the wait for each signal acknowledgment.
const DefaultAckTimeout = 5 * time.Second

// PlanCreator proposes plans.
type PlanCreator interface {
	CreatePlan(ctx context.Context, req planner.Request) (model.DRPlan, error)
}

// Coordinator owns plan state transitions. Transitions are serialized.
type Coordinator struct {
	planner   PlanCreator
	store     planstore.Store
	publisher coremqtt.SignalPublisher
	cohorts   cohort.Source
	history   *history.Tracker
	audit     planstore.AuditLog
	bus       eventbus.EventBus
	log       logger.Logger
	clock     planner.Clock
	ackWait   time.Duration

	mu sync.Mutex
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithAudit records every transition in the audit log.
func WithAudit(a planstore.AuditLog) Option { return func(c *Coordinator) { c.audit = a } }

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(c *Coordinator) { c.bus = bus } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(c *Coordinator) { c.log = logger.OrNop(l) } }

// WithClock overrides the wall clock.
func WithClock(clk planner.Clock) Option { return func(c *Coordinator) { c.clock = clk } }

// WithAckTimeout sets how long to wait for each signal acknowledgment.
func WithAckTimeout(d time.Duration) Option { return func(c *Coordinator) { c.ackWait = d } }

// New wires a Coordinator. Planner, store, publisher, cohort source and
// history tracker are required.
func New(p PlanCreator, store planstore.Store, pub coremqtt.SignalPublisher, cohorts cohort.Source, hist *history.Tracker, opts ...Option) (*Coordinator, error) {
	if p == nil || store == nil || pub == nil || cohorts == nil || hist == nil {
		return nil, errors.New("coordinator: planner, store, publisher, cohorts and history are required")
	}
	c := &Coordinator{
		planner:   p,
		store:     store,
		publisher: pub,
		cohorts:   cohorts,
		history:   hist,
		audit:     planstore.NopAudit{},
		log:       logger.Nop{},
		clock:     planner.SystemClock{},
		ackWait:   DefaultAckTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.ackWait <= 0 {
		c.ackWait = DefaultAckTimeout
	}
	if src, ok := pub.(coremqtt.ResponseSource); ok {
		// Handled off the client goroutine so acks keep flowing during Approve.
		src.OnResponse(func(r model.SignalResponse) { go c.handleResponse(r) })
	}
	return c, nil
}

// Propose creates a plan for the request and stores it as proposed.
func (c *Coordinator) Propose(ctx context.Context, req planner.Request) (model.DRPlan, error) {
	plan, err := c.planner.CreatePlan(ctx, req)
	if err != nil {
		return model.DRPlan{}, err
	}
	plan.Status = model.PlanProposed
	if err := c.store.SavePlan(ctx, plan); err != nil {
		return model.DRPlan{}, fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	c.record(ctx, planstore.AuditRecord{
		Action: planstore.ActionProposed,
		PlanID: plan.ID,
		Status: string(plan.Status),
		Detail: fmt.Sprintf("%s target %.2f MW", plan.Strategy, plan.TargetMWTotal),
	})
	c.publish(events.PlanEvent{Plan: plan, Time: c.clock.Now()})
	return plan, nil
}

// Get returns one plan.
func (c *Coordinator) Get(ctx context.Context, planID string) (model.DRPlan, error) {
	p, err := c.store.GetPlan(ctx, planID)
	if err != nil {
		return model.DRPlan{}, mapStoreErr(err, "plan", planID)
	}
	return p, nil
}

// List returns plans newest first. A zero status matches all plans and a
// non-positive limit uses the store default.
func (c *Coordinator) List(ctx context.Context, status model.PlanStatus, limit int) ([]model.DRPlan, error) {
	return c.store.ListPlans(ctx, planstore.PlanQuery{Status: status, Limit: limit})
}

// Reject closes a proposed plan without dispatching anything.
func (c *Coordinator) Reject(ctx context.Context, planID, operatorID, reason string) (model.DRPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, err := c.Get(ctx, planID)
	if err != nil {
		return model.DRPlan{}, err
	}
	from := plan.Status
	if err := checkTransition(plan, model.PlanRejected); err != nil {
		return model.DRPlan{}, err
	}
	now := c.clock.Now()
	plan.Status = model.PlanRejected
	plan.RejectedBy = operatorID
	plan.RejectedAt = &now
	plan.RejectionReason = reason
	if err := c.store.SavePlan(ctx, plan); err != nil {
		return model.DRPlan{}, fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	c.record(ctx, planstore.AuditRecord{
		Action: planstore.ActionRejected,
		PlanID: plan.ID,
		Actor:  operatorID,
		Status: string(plan.Status),
		Detail: reason,
	})
	c.publish(events.PlanEvent{Plan: plan, From: from, Actor: operatorID, Time: now})
	return plan, nil
}

// Approval is the outcome of approving a plan.
type Approval struct {
	Plan      model.DRPlan     `json:"plan"`
	Signals   []model.DRSignal `json:"signals"`
	Execution string           `json:"execution_id"`
}

// Approve accepts a proposed plan, opens its execution record and dispatches
// one signal per allocation. The plan moves on to in_progress once at least
// one signal went out; otherwise the execution is marked failed and the plan
// stays approved.
func (c *Coordinator) Approve(ctx context.Context, planID, operatorID, notes string) (Approval, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, err := c.Get(ctx, planID)
	if err != nil {
		return Approval{}, err
	}
	from := plan.Status
	if err := checkTransition(plan, model.PlanApproved); err != nil {
		return Approval{}, err
	}
	now := c.clock.Now()
	plan.Status = model.PlanApproved
	plan.ApprovedBy = operatorID
	plan.ApprovedAt = &now
	plan.OperatorNotes = notes
	if err := c.store.SavePlan(ctx, plan); err != nil {
		return Approval{}, fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	c.record(ctx, planstore.AuditRecord{
		Action: planstore.ActionApproved,
		PlanID: plan.ID,
		Actor:  operatorID,
		Status: string(plan.Status),
		Detail: notes,
	})
	c.publish(events.PlanEvent{Plan: plan, From: from, Actor: operatorID, Time: now})

	exec, err := c.history.Start(ctx, plan, operatorID)
	if err != nil {
		return Approval{}, fmt.Errorf("start execution for %s: %w", plan.ID, err)
	}

	signals := make([]model.DRSignal, 0, len(plan.CohortAllocations))
	sent := 0
	for _, a := range plan.CohortAllocations {
		sig := c.dispatch(ctx, plan, a)
		if sig.SentAt != nil {
			sent++
		}
		signals = append(signals, sig)
	}

	if sent == 0 {
		reason := "no signal could be delivered"
		if len(plan.CohortAllocations) == 0 {
			reason = "plan has no cohort allocations"
		}
		if _, err := c.history.Fail(ctx, exec.ID, reason); err != nil {
			c.log.Errorf("fail execution %s: %v", exec.ID, err)
		}
		c.log.Warnf("plan %s approved but %s", plan.ID, reason)
		return Approval{Plan: plan, Signals: signals, Execution: exec.ID}, nil
	}

	plan.Status = model.PlanInProgress
	if err := c.store.SavePlan(ctx, plan); err != nil {
		return Approval{}, fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	c.publish(events.PlanEvent{Plan: plan, From: model.PlanApproved, Actor: operatorID, Time: c.clock.Now()})
	c.log.Infow("plan dispatched", map[string]any{
		"plan_id":      plan.ID,
		"signals":      len(signals),
		"sent":         sent,
		"execution_id": exec.ID,
	})
	return Approval{Plan: plan, Signals: signals, Execution: exec.ID}, nil
}

func checkTransition(plan model.DRPlan, next model.PlanStatus) error {
	if plan.Status.CanTransition(next) {
		return nil
	}
	return fmt.Errorf("%w: plan %s: %w from %s to %s", ErrConflict, plan.ID, model.ErrInvalidTransition, plan.Status, next)
}

func mapStoreErr(err error, kind, id string) error {
	if errors.Is(err, planstore.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return err
}

func (c *Coordinator) record(ctx context.Context, rec planstore.AuditRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.clock.Now()
	}
	if err := c.audit.Append(ctx, rec); err != nil {
		c.log.Errorf("audit %s %s: %v", rec.Action, rec.PlanID, err)
	}
}

func (c *Coordinator) publish(ev eventbus.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
