// Package planstore persists plans and signals, and keeps an audit trail of
// lifecycle actions.
package planstore

import (
	"context"
	"errors"
	"sort"

	"github.com/kilianp07/drplan/core/model"
)

// ErrNotFound is returned when a plan or signal id is unknown.
var ErrNotFound = errors.New("not found")

// DefaultListLimit applies when a query does not set a limit.
const DefaultListLimit = 20

// PlanQuery filters ListPlans. A zero Status matches every plan.
type PlanQuery struct {
	Status model.PlanStatus
	Limit  int
}

// SignalQuery filters ListSignals.
type SignalQuery struct {
	PlanID string
	Status model.SignalStatus
	Limit  int
}

// Store persists plans and signals. Save methods overwrite any record with the
// same id. List methods return newest first.
type Store interface {
	SavePlan(ctx context.Context, p model.DRPlan) error
	GetPlan(ctx context.Context, id string) (model.DRPlan, error)
	ListPlans(ctx context.Context, q PlanQuery) ([]model.DRPlan, error)
	SaveSignal(ctx context.Context, s model.DRSignal) error
	GetSignal(ctx context.Context, id string) (model.DRSignal, error)
	ListSignals(ctx context.Context, q SignalQuery) ([]model.DRSignal, error)
	Close() error
}

func limitOf(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}

func (q PlanQuery) match(p model.DRPlan) bool {
	return q.Status == "" || p.Status == q.Status
}

func (q SignalQuery) match(s model.DRSignal) bool {
	if q.PlanID != "" && s.PlanID != q.PlanID {
		return false
	}
	return q.Status == "" || s.Status == q.Status
}

// selectPlans filters, orders newest first and truncates.
func selectPlans(all []model.DRPlan, q PlanQuery) []model.DRPlan {
	out := make([]model.DRPlan, 0, len(all))
	for _, p := range all {
		if q.match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := limitOf(q.Limit); len(out) > n {
		out = out[:n]
	}
	return out
}

func selectSignals(all []model.DRSignal, q SignalQuery) []model.DRSignal {
	out := make([]model.DRSignal, 0, len(all))
	for _, s := range all {
		if q.match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if n := limitOf(q.Limit); len(out) > n {
		out = out[:n]
	}
	return out
}
