package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/model"
)

var base = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func plan(id string, target float64) model.DRPlan {
	return model.DRPlan{
		ID:            id,
		Strategy:      model.StrategyBalanced,
		TargetMWTotal: target,
		CohortAllocations: []model.CohortAllocation{
			{CohortID: "ev", NumAccounts: 5000},
			{CohortID: "hvac", NumAccounts: 200},
		},
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clk := &stepClock{t: base}
	tr, err := NewTracker("", WithClock(clk.now))
	require.NoError(t, err)

	exec, err := tr.Start(ctx, plan("DR_1", 10), "op")
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionInProgress, exec.Status)
	assert.Equal(t, 5200, exec.TotalAccounts)
	assert.Len(t, exec.ID, len("EXEC_")+8)

	done, err := tr.Complete(ctx, exec.ID, 8, 0.5, "ok", model.CohortResult{CohortID: "ev", CohortName: "EV", AchievedMW: 5})
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionCompleted, done.Status)
	require.NotNil(t, done.ExecutionEnd)
	assert.Equal(t, 8.0, *done.AchievedMW)

	_, err = tr.Complete(ctx, exec.ID, 1, 1, "")
	assert.True(t, errors.Is(err, ErrFinished))
	_, err = tr.Fail(ctx, "EXEC_missing", "")
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := tr.ForPlan(ctx, "DR_1")
	require.NoError(t, err)
	assert.Equal(t, exec.ID, got.ID)
}

func TestTracker_Summary(t *testing.T) {
	ctx := context.Background()
	clk := &stepClock{t: base}
	tr, err := NewTracker("", WithClock(clk.now))
	require.NoError(t, err)

	a, _ := tr.Start(ctx, plan("A", 10), "op")
	_, err = tr.Complete(ctx, a.ID, 8, 0.8, "",
		model.CohortResult{CohortID: "ev", CohortName: "EV", AchievedMW: 3},
		model.CohortResult{CohortID: "hvac", CohortName: "HVAC", AchievedMW: 5})
	require.NoError(t, err)
	b, _ := tr.Start(ctx, plan("B", 20), "op")
	_, err = tr.Complete(ctx, b.ID, 10, 0.5, "",
		model.CohortResult{CohortID: "ev", CohortName: "EV", AchievedMW: 7},
		model.CohortResult{CohortID: "ind", CohortName: "IND", AchievedMW: 1},
		model.CohortResult{CohortID: "sol", CohortName: "SOL", AchievedMW: 0.5})
	require.NoError(t, err)
	c, _ := tr.Start(ctx, plan("C", 5), "op")
	_, err = tr.Fail(ctx, c.ID, "no signal delivered")
	require.NoError(t, err)
	_, _ = tr.Start(ctx, plan("D", 5), "op")

	s := tr.Summary(ctx, 30, base.Add(time.Hour))
	assert.Equal(t, 4, s.TotalPlans)
	assert.Equal(t, 2, s.SuccessfulPlans)
	assert.Equal(t, 1, s.FailedPlans)
	assert.InDelta(t, 0.65, s.AverageAchievementRate, 1e-9)
	assert.InDelta(t, 18, s.TotalMWReduced, 1e-9)
	assert.InDelta(t, 2700, s.TotalCostAvoided, 1e-9)
	assert.Equal(t, 10.0, s.PeakReductionAchieved)
	require.Len(t, s.BestPerformingCohorts, 3)
	assert.Equal(t, "ev", s.BestPerformingCohorts[0].ID)
	assert.Equal(t, 5.0, s.BestPerformingCohorts[0].AverageMW)
	assert.Equal(t, "hvac", s.BestPerformingCohorts[1].ID)
	assert.Equal(t, "ind", s.BestPerformingCohorts[2].ID)

	old := tr.Summary(ctx, 30, base.AddDate(0, 2, 0))
	assert.Equal(t, 0, old.TotalPlans)
	assert.NotNil(t, old.BestPerformingCohorts)
}

func TestTracker_List(t *testing.T) {
	ctx := context.Background()
	clk := &stepClock{t: base}
	tr, _ := NewTracker("", WithClock(clk.now))
	first, _ := tr.Start(ctx, plan("A", 1), "op")
	second, _ := tr.Start(ctx, plan("B", 1), "op")
	_, _ = tr.Fail(ctx, first.ID, "")

	all := tr.List(ctx, 0, "")
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	failed := tr.List(ctx, 10, model.ExecutionFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, first.ID, failed[0].ID)

	assert.Len(t, tr.List(ctx, 1, ""), 1)
}

func TestTracker_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history", "executions.json")
	tr, err := NewTracker(path)
	require.NoError(t, err)
	exec, err := tr.Start(ctx, plan("DR_1", 10), "op")
	require.NoError(t, err)
	_, err = tr.Complete(ctx, exec.ID, 4, 1, "done")
	require.NoError(t, err)

	reloaded, err := NewTracker(path)
	require.NoError(t, err)
	got, err := reloaded.Get(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionCompleted, got.Status)
	assert.Equal(t, "done", got.Notes)
	assert.Equal(t, 4.0, *got.AchievedMW)
}
