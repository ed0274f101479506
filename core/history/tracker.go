// Package history tracks how approved plans performed once their signals
// were dispatched, and summarizes the outcomes over a look-back period.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/drplan/core/model"
)

// ErrNotFound is returned for an unknown execution id.
var ErrNotFound = errors.New("execution not found")

// ErrFinished is returned when completing or failing an execution twice.
var ErrFinished = errors.New("execution already finished")

// AvoidedCostPerMW is the cost credited for each MW actually reduced.
const AvoidedCostPerMW = 150.0

// DefaultListLimit applies when List is called without a limit.
const DefaultListLimit = 100

const bestCohortCount = 3

// Tracker records plan executions in memory and, when a path is set, mirrors
// them to a JSON file after every change.
type Tracker struct {
	mu    sync.Mutex
	execs []model.PlanExecution
	path  string
	now   func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for execution timestamps.
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// NewTracker loads previously persisted executions from path. An empty path
// keeps history in memory only.
func NewTracker(path string, opts ...Option) (*Tracker, error) {
	t := &Tracker{path: path, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(t)
	}
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(raw, &t.execs); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", path, err)
	}
	return t, nil
}

// Start opens an in-progress execution for the plan.
func (t *Tracker) Start(_ context.Context, plan model.DRPlan, operatorID string) (model.PlanExecution, error) {
	accounts := plan.TotalAccounts()
	exec := model.PlanExecution{
		ID:                    "EXEC_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		PlanID:                plan.ID,
		ExecutionStart:        t.now(),
		Status:                model.ExecutionInProgress,
		TargetMW:              plan.TargetMWTotal,
		ParticipatingAccounts: accounts,
		TotalAccounts:         accounts,
		Strategy:              plan.Strategy,
		OperatorID:            operatorID,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.execs = append(t.execs, exec)
	if err := t.persist(); err != nil {
		t.execs = t.execs[:len(t.execs)-1]
		return model.PlanExecution{}, err
	}
	return exec, nil
}

// Complete closes the execution with the observed outcome. Per-cohort
// results feed the best-performing cohort ranking.
func (t *Tracker) Complete(_ context.Context, execID string, achievedMW, acceptanceRate float64, notes string, cohorts ...model.CohortResult) (model.PlanExecution, error) {
	return t.finish(execID, func(e *model.PlanExecution) {
		e.Status = model.ExecutionCompleted
		e.AchievedMW = &achievedMW
		e.AcceptanceRate = &acceptanceRate
		e.Notes = notes
		e.Cohorts = append([]model.CohortResult(nil), cohorts...)
	})
}

// Fail closes the execution as failed.
func (t *Tracker) Fail(_ context.Context, execID, notes string) (model.PlanExecution, error) {
	return t.finish(execID, func(e *model.PlanExecution) {
		e.Status = model.ExecutionFailed
		e.Notes = notes
	})
}

func (t *Tracker) finish(execID string, apply func(*model.PlanExecution)) (model.PlanExecution, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(execID)
	if i < 0 {
		return model.PlanExecution{}, fmt.Errorf("%w: %s", ErrNotFound, execID)
	}
	prev := t.execs[i]
	if prev.ExecutionEnd != nil {
		return model.PlanExecution{}, fmt.Errorf("%w: %s", ErrFinished, execID)
	}
	e := prev
	end := t.now()
	e.ExecutionEnd = &end
	apply(&e)
	t.execs[i] = e
	if err := t.persist(); err != nil {
		t.execs[i] = prev
		return model.PlanExecution{}, err
	}
	return e, nil
}

// Get returns one execution.
func (t *Tracker) Get(_ context.Context, execID string) (model.PlanExecution, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.index(execID); i >= 0 {
		return t.execs[i], nil
	}
	return model.PlanExecution{}, fmt.Errorf("%w: %s", ErrNotFound, execID)
}

// ForPlan returns the latest execution opened for the plan.
func (t *Tracker) ForPlan(_ context.Context, planID string) (model.PlanExecution, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.execs) - 1; i >= 0; i-- {
		if t.execs[i].PlanID == planID {
			return t.execs[i], nil
		}
	}
	return model.PlanExecution{}, fmt.Errorf("%w: plan %s", ErrNotFound, planID)
}

// List returns executions newest first, optionally filtered by status.
func (t *Tracker) List(_ context.Context, limit int, status model.ExecutionStatus) []model.PlanExecution {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	t.mu.Lock()
	out := make([]model.PlanExecution, 0, len(t.execs))
	for _, e := range t.execs {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	t.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExecutionStart.After(out[j].ExecutionStart)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summary aggregates executions started within the last days before now.
func (t *Tracker) Summary(_ context.Context, days int, now time.Time) model.HistoricalSummary {
	cutoff := now.AddDate(0, 0, -days)
	t.mu.Lock()
	recent := make([]model.PlanExecution, 0, len(t.execs))
	for _, e := range t.execs {
		if !e.ExecutionStart.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	t.mu.Unlock()
	return summarize(recent)
}

func summarize(execs []model.PlanExecution) model.HistoricalSummary {
	s := model.HistoricalSummary{
		TotalPlans:            len(execs),
		BestPerformingCohorts: []model.CohortPerformance{},
	}
	var rates []float64
	type cohortTotal struct {
		name  string
		total float64
		count int
	}
	cohorts := map[string]*cohortTotal{}
	for _, e := range execs {
		switch e.Status {
		case model.ExecutionFailed:
			s.FailedPlans++
			continue
		case model.ExecutionCompleted:
			s.SuccessfulPlans++
		default:
			continue
		}
		achieved := 0.0
		if e.AchievedMW != nil {
			achieved = *e.AchievedMW
		}
		rate := 0.0
		if e.TargetMW > 0 {
			rate = achieved / e.TargetMW
		}
		rates = append(rates, rate)
		s.TotalMWReduced += achieved
		if achieved > s.PeakReductionAchieved {
			s.PeakReductionAchieved = achieved
		}
		for _, c := range e.Cohorts {
			ct, ok := cohorts[c.CohortID]
			if !ok {
				ct = &cohortTotal{name: c.CohortName}
				cohorts[c.CohortID] = ct
			}
			ct.total += c.AchievedMW
			ct.count++
		}
	}
	if len(rates) > 0 {
		s.AverageAchievementRate = stat.Mean(rates, nil)
	}
	s.TotalCostAvoided = s.TotalMWReduced * AvoidedCostPerMW

	for id, ct := range cohorts {
		s.BestPerformingCohorts = append(s.BestPerformingCohorts, model.CohortPerformance{
			ID:        id,
			Name:      ct.name,
			AverageMW: ct.total / float64(ct.count),
		})
	}
	sort.Slice(s.BestPerformingCohorts, func(i, j int) bool {
		a, b := s.BestPerformingCohorts[i], s.BestPerformingCohorts[j]
		if a.AverageMW != b.AverageMW {
			return a.AverageMW > b.AverageMW
		}
		return a.ID < b.ID
	})
	if len(s.BestPerformingCohorts) > bestCohortCount {
		s.BestPerformingCohorts = s.BestPerformingCohorts[:bestCohortCount]
	}
	return s
}

func (t *Tracker) index(id string) int {
	for i, e := range t.execs {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole history atomically. Callers hold t.mu.
func (t *Tracker) persist() error {
	if t.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(t.execs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".executions-*")
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("history: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("history: close: %w", err)
	}
	return os.Rename(tmp.Name(), t.path)
}
