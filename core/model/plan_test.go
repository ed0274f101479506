package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy("Reliability")
	require.NoError(t, err)
	assert.Equal(t, StrategyReliability, st)

	_, err = ParseStrategy("cheapest")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestStrategyTitle(t *testing.T) {
	assert.Equal(t, "Cost Minimize", StrategyCostMinimize.Title())
	assert.Equal(t, "Emergency", StrategyEmergency.Title())
}

func TestStressSeverityOrdering(t *testing.T) {
	levels := []StressLevel{StressLow, StressModerate, StressHigh, StressCritical}
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i].Severity(), levels[i-1].Severity())
	}
}

func TestPlanStatusTransitions(t *testing.T) {
	assert.True(t, PlanProposed.CanTransition(PlanApproved))
	assert.True(t, PlanProposed.CanTransition(PlanRejected))
	assert.True(t, PlanApproved.CanTransition(PlanInProgress))
	assert.False(t, PlanRejected.CanTransition(PlanApproved))
	assert.False(t, PlanCompleted.CanTransition(PlanProposed))
}

func TestDRPlanTotalAccounts(t *testing.T) {
	p := DRPlan{CohortAllocations: []CohortAllocation{{NumAccounts: 10}, {NumAccounts: 5}}}
	assert.Equal(t, 15, p.TotalAccounts())
}
