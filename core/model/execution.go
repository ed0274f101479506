package model

import "time"

// ExecutionStatus tracks a plan once signals are out.
type ExecutionStatus string

const (
	ExecutionPending    ExecutionStatus = "pending"
	ExecutionInProgress ExecutionStatus = "in_progress"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
	ExecutionCancelled  ExecutionStatus = "cancelled"
)

// CohortResult is the observed contribution of one cohort in an execution.
type CohortResult struct {
	CohortID   string  `json:"id"`
	CohortName string  `json:"name"`
	AchievedMW float64 `json:"achieved_mw"`
}

// PlanExecution records how a plan performed once dispatched.
type PlanExecution struct {
	ID                    string          `json:"id"`
	PlanID                string          `json:"plan_id"`
	ExecutionStart        time.Time       `json:"execution_start"`
	ExecutionEnd          *time.Time      `json:"execution_end,omitempty"`
	Status                ExecutionStatus `json:"status"`
	TargetMW              float64         `json:"target_mw"`
	AchievedMW            *float64        `json:"achieved_mw,omitempty"`
	ParticipatingAccounts int             `json:"participating_accounts"`
	TotalAccounts         int             `json:"total_accounts"`
	AcceptanceRate        *float64        `json:"acceptance_rate,omitempty"`
	Strategy              Strategy        `json:"strategy"`
	OperatorID            string          `json:"operator_id"`
	Notes                 string          `json:"notes,omitempty"`
	Cohorts               []CohortResult  `json:"cohorts,omitempty"`
}

// CohortPerformance ranks cohorts by their average achieved MW.
type CohortPerformance struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AverageMW float64 `json:"average_mw"`
}

// HistoricalSummary aggregates executions over a look-back period.
type HistoricalSummary struct {
	TotalPlans             int                 `json:"total_plans"`
	SuccessfulPlans        int                 `json:"successful_plans"`
	FailedPlans            int                 `json:"failed_plans"`
	AverageAchievementRate float64             `json:"average_achievement_rate"`
	TotalMWReduced         float64             `json:"total_mw_reduced"`
	TotalCostAvoided       float64             `json:"total_cost_avoided"`
	BestPerformingCohorts  []CohortPerformance `json:"best_performing_cohorts"`
	PeakReductionAchieved  float64             `json:"peak_reduction_achieved"`
}
