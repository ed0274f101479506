package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/drplan/core/logger"
	"github.com/kilianp07/drplan/core/model"
)

// ErrTargetRequired is recorded in a plan when no target was supplied and no
// grid data was available to derive one.
var ErrTargetRequired = errors.New("explicit target required without grid data")

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid plan request")

// GridSource provides the current grid snapshot and forecast.
type GridSource interface {
	Load(ctx context.Context) (model.GridData, error)
}

// CohortSource provides the cohort catalog.
type CohortSource interface {
	Cohorts(ctx context.Context) ([]model.Cohort, error)
}

// Request describes the plan an operator asks for.
type Request struct {
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	Strategy    model.Strategy `json:"strategy"`
	// TargetMW is derived from the grid situation when nil or zero.
	TargetMW *float64 `json:"target_mw,omitempty"`
	// CohortIDs restricts planning to the listed cohorts when non-empty.
	CohortIDs []string `json:"cohort_ids,omitempty"`
}

// Validate checks the request before any data is loaded.
func (r Request) Validate() error {
	if r.WindowStart.IsZero() || r.WindowEnd.IsZero() {
		return fmt.Errorf("%w: window bounds are required", ErrInvalidRequest)
	}
	if !r.WindowEnd.After(r.WindowStart) {
		return fmt.Errorf("%w: window end must be after start", ErrInvalidRequest)
	}
	if _, err := model.ParseStrategy(string(r.Strategy)); err != nil {
		return err
	}
	if r.TargetMW != nil && *r.TargetMW < 0 {
		return fmt.Errorf("%w: target_mw must not be negative", ErrInvalidRequest)
	}
	return nil
}

func (r Request) window() Window {
	return Window{Start: r.WindowStart, End: r.WindowEnd}
}

func (r Request) explicitTarget() (float64, bool) {
	if r.TargetMW == nil || *r.TargetMW <= 0 {
		return 0, false
	}
	return *r.TargetMW, true
}

// Inputs is everything loaded from the outside world for one plan.
type Inputs struct {
	Grid      model.GridData
	Cohorts   []model.Cohort
	CohortErr error
}

// Assemble computes a plan from already-loaded inputs. It performs no I/O and
// returns identical plans for identical arguments.
func Assemble(cfg Config, in Inputs, req Request, now time.Time, id string) model.DRPlan {
	w := req.window()
	situation, gridErr := Analyze(in.Grid, w)

	cohorts := filterCohorts(in.Cohorts, req.CohortIDs)
	if in.CohortErr != nil {
		situation.Notes = append(situation.Notes, fmt.Sprintf("cohort catalog unavailable: %v", in.CohortErr))
	}

	plan := model.DRPlan{
		ID:                 id,
		CreatedAt:          now,
		WindowStart:        req.WindowStart,
		WindowEnd:          req.WindowEnd,
		Strategy:           req.Strategy,
		Status:             model.PlanProposed,
		CohortAllocations:  []model.CohortAllocation{},
		ConstraintsApplied: Constraints(cfg, w, now),
	}

	target, explicit := req.explicitTarget()
	if !explicit {
		if errors.Is(gridErr, ErrNoGridData) {
			situation.Notes = append(situation.Notes, ErrTargetRequired.Error())
			plan.SituationSummary = situation
			plan.Explanation = explainMissingTarget(req.Strategy, situation)
			return plan
		}
		target = TargetMW(situation, req.Strategy, cfg.BaseTargetMW)
	}

	scored := ScoreCohorts(cohorts, w, req.Strategy, now)
	allocations := Allocate(scored, target, req.Strategy, cfg.BalancedCapFraction)
	confidence := Confidence(allocations, situation.StressLevel)

	var predicted float64
	for _, a := range allocations {
		predicted += a.PredictedMW
	}

	plan.TargetMWTotal = target
	plan.PredictedMWTotal = floor2(predicted)
	if allocations != nil {
		plan.CohortAllocations = allocations
	}
	plan.ConfidenceScore = confidence
	plan.SituationSummary = situation
	plan.Explanation = Explain(req.Strategy, allocations, situation, confidence)
	if in.CohortErr != nil {
		plan.Explanation += "\nCohort catalog could not be loaded; no cohorts were allocated."
	}
	return plan
}

func filterCohorts(cohorts []model.Cohort, ids []string) []model.Cohort {
	if len(ids) == 0 {
		return cohorts
	}
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	out := make([]model.Cohort, 0, len(ids))
	for _, c := range cohorts {
		if _, ok := allowed[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// NewPlanID builds identifiers of the form DR_20250101_170000_1a2b3c4d.
func NewPlanID(now time.Time) string {
	return fmt.Sprintf("DR_%s_%s", now.UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

// Planner loads inputs and assembles plans.
type Planner struct {
	cfg     Config
	grid    GridSource
	cohorts CohortSource
	clock   Clock
	log     logger.Logger
	newID   func(time.Time) string
}

// Option customizes a Planner.
type Option func(*Planner)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option { return func(p *Planner) { p.clock = c } }

// WithLogger sets the logger used for load failures.
func WithLogger(l logger.Logger) Option { return func(p *Planner) { p.log = logger.OrNop(l) } }

// WithIDFunc overrides plan ID generation.
func WithIDFunc(f func(time.Time) string) Option { return func(p *Planner) { p.newID = f } }

// New validates the configuration and returns a Planner.
func New(cfg Config, grid GridSource, cohorts CohortSource, opts ...Option) (*Planner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if grid == nil || cohorts == nil {
		return nil, errors.New("planner: grid and cohort sources are required")
	}
	p := &Planner{
		cfg:     cfg,
		grid:    grid,
		cohorts: cohorts,
		clock:   SystemClock{},
		log:     logger.Nop{},
		newID:   NewPlanID,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Config returns the calibration in use.
func (p *Planner) Config() Config { return p.cfg }

// CreatePlan proposes a plan for the requested window. Only an invalid request
// is reported as an error; unavailable grid or cohort data is recorded in the
// plan itself.
func (p *Planner) CreatePlan(ctx context.Context, req Request) (model.DRPlan, error) {
	if err := req.Validate(); err != nil {
		return model.DRPlan{}, err
	}
	in := p.load(ctx)
	now := p.clock.Now()
	plan := Assemble(p.cfg, in, req, now, p.newID(now))
	p.log.Infow("plan assembled", map[string]any{
		"plan_id":     plan.ID,
		"strategy":    string(plan.Strategy),
		"target_mw":   plan.TargetMWTotal,
		"predicted":   plan.PredictedMWTotal,
		"allocations": len(plan.CohortAllocations),
		"degraded":    plan.SituationSummary.Degraded,
	})
	return plan, nil
}

func (p *Planner) load(ctx context.Context) Inputs {
	var in Inputs
	data, err := p.grid.Load(ctx)
	if err != nil {
		p.log.Warnf("grid source: %v", err)
		data = model.GridData{Err: err.Error()}
	}
	in.Grid = data
	cohorts, err := p.cohorts.Cohorts(ctx)
	if err != nil {
		p.log.Warnf("cohort source: %v", err)
		in.CohortErr = err
	}
	in.Cohorts = cohorts
	return in
}
