package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/model"
)

func sumTarget(allocs []model.CohortAllocation) float64 {
	var s float64
	for _, a := range allocs {
		s += a.TargetMW
	}
	return s
}

func TestAllocate_BoundedByTarget(t *testing.T) {
	for _, strategy := range []model.Strategy{
		model.StrategyCostMinimize, model.StrategyReliability, model.StrategyBalanced, model.StrategyEmergency,
	} {
		for _, target := range []float64{0.5, 3, 7.77, 12, 100, 333.33} {
			scored := ScoreCohorts(append(testCohorts(), bigCohorts(3)...), eveningWindow(), strategy, testNow)
			allocs := Allocate(scored, target, strategy, 0.3)
			assert.LessOrEqual(t, sumTarget(allocs), target+1e-6, "%s target %v", strategy, target)
			for _, a := range allocs {
				assert.LessOrEqual(t, a.PredictedMW, a.TargetMW)
				assert.Greater(t, a.TargetMW, 0.0)
				assert.GreaterOrEqual(t, a.AcceptanceProbability, 0.0)
				assert.LessOrEqual(t, a.AcceptanceProbability, 1.0)
			}
		}
	}
}

func TestAllocate_Greedy(t *testing.T) {
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	allocs := Allocate(scored, 100, model.StrategyReliability, 0.3)
	require.Len(t, allocs, 2)

	ev := allocs[0]
	assert.Equal(t, "ev_austin", ev.CohortID)
	assert.Equal(t, 7.0, ev.TargetMW)
	assert.Equal(t, 4.9, ev.PredictedMW)
	assert.Equal(t, 0.7, ev.AcceptanceProbability)
	assert.Equal(t, 5000, ev.NumAccounts)
	assert.Contains(t, ev.MessageTemplate, "Delay EV charging")

	hvac := allocs[1]
	assert.Equal(t, 5.33, hvac.TargetMW)
	assert.Equal(t, 4.26, hvac.PredictedMW)
	assert.Equal(t, 0.533, hvac.AcceptanceProbability)
}

func TestAllocate_StopsAtTarget(t *testing.T) {
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	allocs := Allocate(scored, 5, model.StrategyReliability, 0.3)
	require.Len(t, allocs, 1)
	assert.Equal(t, 5.0, allocs[0].TargetMW)
	assert.Equal(t, 3.5, allocs[0].PredictedMW)
}

func TestAllocate_ZeroShareOmitted(t *testing.T) {
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	require.Len(t, scored, 2)
	allocs := Allocate(scored, 5, model.StrategyReliability, 0.3)
	require.Len(t, allocs, 1)
	// hvac_dallas (acceptance 0.533) gets nothing and does not dilute the mean.
	assert.Equal(t, 0.77, Confidence(allocs, model.StressLow))
	withZero := append(allocs, model.CohortAllocation{CohortID: "hvac_dallas", AcceptanceProbability: 0.533})
	assert.Equal(t, 0.745, Confidence(withZero, model.StressLow))
}

func TestAllocate_BalancedCap(t *testing.T) {
	scored := ScoreCohorts(bigCohorts(5), eveningWindow(), model.StrategyBalanced, testNow)
	allocs := Allocate(scored, 75, model.StrategyBalanced, 0.3)
	require.Len(t, allocs, 4)
	for _, a := range allocs {
		assert.LessOrEqual(t, a.TargetMW, 22.5)
	}
	assert.InDelta(t, 75, sumTarget(allocs), 1e-9)
	assert.Equal(t, 7.5, allocs[3].TargetMW)
}

func TestAllocate_CapOnlyForBalanced(t *testing.T) {
	scored := ScoreCohorts(bigCohorts(2), eveningWindow(), model.StrategyReliability, testNow)
	allocs := Allocate(scored, 75, model.StrategyReliability, 0.3)
	require.Len(t, allocs, 1)
	assert.Equal(t, 75.0, allocs[0].TargetMW)
}

func TestAllocate_SkipsUnavailable(t *testing.T) {
	c := testCohorts()[0]
	c.PeakHours = []int{3, 4}
	scored := ScoreCohorts([]model.Cohort{c, testCohorts()[1]}, eveningWindow(), model.StrategyReliability, testNow)
	allocs := Allocate(scored, 50, model.StrategyReliability, 0.3)
	require.Len(t, allocs, 1)
	assert.Equal(t, "hvac_dallas", allocs[0].CohortID)
}

func TestAllocate_ZeroTarget(t *testing.T) {
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	assert.Empty(t, Allocate(scored, 0, model.StrategyReliability, 0.3))
}
