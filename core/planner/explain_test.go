package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/drplan/core/model"
)

func TestConstraints(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		[]string{ConstraintPeakWindow, ConstraintComfort, ConstraintWeeklyLimit},
		Constraints(cfg, eveningWindow(), testNow))
	assert.Equal(t,
		[]string{ConstraintShortNotice, ConstraintComfort, ConstraintWeeklyLimit},
		Constraints(cfg, Window{Start: at(14), End: at(15)}, testNow))
	assert.Equal(t,
		[]string{ConstraintShortNotice, ConstraintPeakWindow, ConstraintComfort, ConstraintWeeklyLimit},
		Constraints(cfg, Window{Start: at(20), End: at(21)}, at(18)))
}

func TestExplain(t *testing.T) {
	s := model.SituationSummary{StressLevel: model.StressHigh, ReservesMW: 6000, CurrentPrice: 60, WindowOverlapsPeak: true}
	allocs := []model.CohortAllocation{
		{PredictedMW: 4.9, NumAccounts: 5000},
		{PredictedMW: 4.26, NumAccounts: 200},
	}
	got := Explain(model.StrategyReliability, allocs, s, 0.667)
	want := strings.Join([]string{
		"Strategy: Reliability",
		"System stress level: high",
		"Targeting 9.2 MW reduction across 5,200 accounts",
		"Window overlaps with forecasted peak demand",
		"Confidence level: 66.7%",
		"Reserve margin: 6000 MW - enhancing grid stability",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestExplain_StrategyRemarks(t *testing.T) {
	s := model.SituationSummary{StressLevel: model.StressLow, CurrentPrice: 123.456}
	cost := Explain(model.StrategyCostMinimize, nil, s, 0)
	assert.Contains(t, cost, "Strategy: Cost Minimize")
	assert.Contains(t, cost, "Current price: $123.46/MWh - targeting high-cost periods")
	assert.NotContains(t, cost, "overlaps")
	assert.Contains(t, cost, "across 0 accounts")
	assert.Contains(t, Explain(model.StrategyEmergency, nil, s, 0), "EMERGENCY MODE - Maximum reduction requested")
	assert.Contains(t, Explain(model.StrategyBalanced, nil, s, 0), "Strategy: Balanced")
}
