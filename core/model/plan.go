package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Strategy selects how a plan trades off cost, reliability and fairness.
type Strategy string

const (
	StrategyCostMinimize Strategy = "cost_minimize"
	StrategyReliability  Strategy = "reliability"
	StrategyBalanced     Strategy = "balanced"
	StrategyEmergency    Strategy = "emergency"
)

// ErrUnknownStrategy is returned when a strategy value is not recognised.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy validates a strategy coming from an outer boundary.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyCostMinimize, StrategyReliability, StrategyBalanced, StrategyEmergency:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Title returns the human label, e.g. "Cost Minimize".
func (s Strategy) Title() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// StressLevel is a coarse classification of grid strain.
type StressLevel string

const (
	StressLow      StressLevel = "low"
	StressModerate StressLevel = "moderate"
	StressHigh     StressLevel = "high"
	StressCritical StressLevel = "critical"
)

// Severity orders stress levels from 0 (low) to 3 (critical).
func (l StressLevel) Severity() int {
	switch l {
	case StressModerate:
		return 1
	case StressHigh:
		return 2
	case StressCritical:
		return 3
	default:
		return 0
	}
}

// PlanStatus tracks a plan through its lifecycle.
type PlanStatus string

const (
	PlanProposed   PlanStatus = "proposed"
	PlanApproved   PlanStatus = "approved"
	PlanRejected   PlanStatus = "rejected"
	PlanInProgress PlanStatus = "in_progress"
	PlanCompleted  PlanStatus = "completed"
)

// ErrInvalidTransition is returned for lifecycle moves the plan does not allow.
var ErrInvalidTransition = errors.New("invalid plan status transition")

var transitions = map[PlanStatus][]PlanStatus{
	PlanProposed:   {PlanApproved, PlanRejected},
	PlanApproved:   {PlanInProgress, PlanCompleted},
	PlanInProgress: {PlanCompleted},
}

// CanTransition reports whether a plan may move from s to next.
func (s PlanStatus) CanTransition(next PlanStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// SituationSummary is the normalized grid picture a plan was computed from.
type SituationSummary struct {
	CurrentLoadMW      float64     `json:"current_load_mw"`
	CurrentPrice       float64     `json:"current_price"`
	ReservesMW         float64     `json:"reserves_mw"`
	ForecastPeakMW     float64     `json:"forecast_peak_mw"`
	ForecastPeakHour   int         `json:"forecast_peak_hour"`
	WindowOverlapsPeak bool        `json:"window_overlaps_peak"`
	StressLevel        StressLevel `json:"stress_level"`
	// Degraded is set when any field fell back to a default value.
	Degraded bool     `json:"degraded"`
	Notes    []string `json:"notes,omitempty"`
}

// CohortAllocation is the share of a plan assigned to one cohort.
type CohortAllocation struct {
	CohortID              string  `json:"cohort_id"`
	CohortName            string  `json:"cohort_name"`
	Segment               Segment `json:"segment"`
	TargetMW              float64 `json:"target_mw"`
	PredictedMW           float64 `json:"predicted_mw"`
	AcceptanceProbability float64 `json:"acceptance_probability"`
	NumAccounts           int     `json:"num_accounts"`
	MessageTemplate       string  `json:"message_template"`
}

// DRPlan is a proposed demand-response event.
type DRPlan struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	WindowStart        time.Time          `json:"window_start"`
	WindowEnd          time.Time          `json:"window_end"`
	Strategy           Strategy           `json:"strategy"`
	Status             PlanStatus         `json:"status"`
	TargetMWTotal      float64            `json:"target_mw_total"`
	PredictedMWTotal   float64            `json:"predicted_mw_total"`
	CohortAllocations  []CohortAllocation `json:"cohort_allocations"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ConstraintsApplied []string           `json:"constraints_applied"`
	Explanation        string             `json:"explanation"`
	SituationSummary   SituationSummary   `json:"situation_summary"`

	OperatorNotes   string     `json:"operator_notes,omitempty"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// TotalAccounts sums the accounts across allocations.
func (p DRPlan) TotalAccounts() int {
	n := 0
	for _, a := range p.CohortAllocations {
		n += a.NumAccounts
	}
	return n
}
