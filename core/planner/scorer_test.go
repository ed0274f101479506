package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/model"
)

func ids(scored []ScoredCohort) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Cohort.ID
	}
	return out
}

func TestPeakAlignment(t *testing.T) {
	assert.InDelta(t, 2.0/3, PeakAlignment([]int{17, 18, 19}, []int{18, 19, 20, 21}), 1e-9)
	assert.Equal(t, 1.0, PeakAlignment([]int{17}, []int{17}))
	assert.Equal(t, 0.0, PeakAlignment(nil, []int{17}))
	assert.Equal(t, 0.0, PeakAlignment([]int{1, 2}, nil))
}

func TestWindowHours_CrossingMidnight(t *testing.T) {
	w := Window{Start: at(22), End: at(1).AddDate(0, 0, 1)}
	assert.Empty(t, w.Hours())
	assert.Equal(t, 0.0, PeakAlignment(w.Hours(), []int{22, 23}))
}

func TestScoreCohorts_NoticeFilter(t *testing.T) {
	// Window starts in 5 hours; the 48h cohort can never be notified in time.
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	assert.NotContains(t, ids(scored), "ind_houston")
	assert.Len(t, scored, 2)

	// Starting in 90 minutes also drops the 2h EV cohort.
	w := Window{Start: testNow.Add(90 * time.Minute), End: at(19)}
	scored = ScoreCohorts(testCohorts(), w, model.StrategyReliability, testNow)
	assert.Equal(t, []string{"hvac_dallas"}, ids(scored))
}

func TestScoreCohorts_StrategyOrdering(t *testing.T) {
	cases := map[model.Strategy][]string{
		model.StrategyReliability:  {"ev_austin", "hvac_dallas"},
		model.StrategyCostMinimize: {"hvac_dallas", "ev_austin"},
		model.StrategyEmergency:    {"hvac_dallas", "ev_austin"},
		model.StrategyBalanced:     {"ev_austin", "hvac_dallas"},
	}
	for strategy, want := range cases {
		scored := ScoreCohorts(testCohorts(), eveningWindow(), strategy, testNow)
		assert.Equal(t, want, ids(scored), "strategy %s", strategy)
	}
}

func TestScoreCohorts_Values(t *testing.T) {
	scored := ScoreCohorts(testCohorts(), eveningWindow(), model.StrategyReliability, testNow)
	require.Len(t, scored, 2)
	ev := scored[0]
	assert.InDelta(t, 30+17.5+1+10.5, ev.Score, 1e-9)
	assert.InDelta(t, 7.0, ev.AvailableMW, 1e-9)
	assert.Equal(t, Factors{PeakAlignment: 1, Acceptance: 0.7, FlexMW: 10}, ev.Factors)
	hvac := scored[1]
	assert.InDelta(t, 20+20+1+12, hvac.Score, 1e-9)
	assert.InDelta(t, 10*(2.0/3)*0.8, hvac.AvailableMW, 1e-9)
}

func TestScoreCohorts_CommercialTagBonus(t *testing.T) {
	hvac := testCohorts()[1]
	retail := hvac
	retail.ID, retail.Segment = "retail_dallas", "commercial_retail"
	home := hvac
	home.ID, home.Segment = "home_dallas", model.SegmentResidentialStandard

	scored := ScoreCohorts([]model.Cohort{home, retail, hvac}, eveningWindow(), model.StrategyCostMinimize, testNow)
	require.Len(t, scored, 3)
	assert.Equal(t, []string{"retail_dallas", "hvac_dallas", "home_dallas"}, ids(scored))
	assert.InDelta(t, scored[1].Score, scored[0].Score, 1e-9)
	assert.InDelta(t, scored[2].Score+15, scored[0].Score, 1e-9)
}

func TestScoreCohorts_FlexPointsCapped(t *testing.T) {
	c := bigCohorts(1)
	scored := ScoreCohorts(c, eveningWindow(), model.StrategyBalanced, testNow)
	require.Len(t, scored, 1)
	assert.InDelta(t, 30+0.9*25+20, scored[0].Score, 1e-9)
}

func TestScoreCohorts_StableTies(t *testing.T) {
	scored := ScoreCohorts(bigCohorts(4), eveningWindow(), model.StrategyBalanced, testNow)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(scored))
}
