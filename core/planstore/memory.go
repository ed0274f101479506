package planstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/drplan/core/model"
)

// MemoryStore keeps everything in maps. Stored records are copied on the way
// in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	plans   map[string]model.DRPlan
	signals map[string]model.DRSignal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:   make(map[string]model.DRPlan),
		signals: make(map[string]model.DRSignal),
	}
}

func (m *MemoryStore) SavePlan(_ context.Context, p model.DRPlan) error {
	if p.ID == "" {
		return fmt.Errorf("save plan: empty id")
	}
	m.mu.Lock()
	m.plans[p.ID] = clonePlan(p)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetPlan(_ context.Context, id string) (model.DRPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return model.DRPlan{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return clonePlan(p), nil
}

func (m *MemoryStore) ListPlans(_ context.Context, q PlanQuery) ([]model.DRPlan, error) {
	m.mu.RLock()
	all := make([]model.DRPlan, 0, len(m.plans))
	for _, p := range m.plans {
		all = append(all, clonePlan(p))
	}
	m.mu.RUnlock()
	return selectPlans(all, q), nil
}

func (m *MemoryStore) SaveSignal(_ context.Context, s model.DRSignal) error {
	if s.ID == "" {
		return fmt.Errorf("save signal: empty id")
	}
	m.mu.Lock()
	m.signals[s.ID] = cloneSignal(s)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetSignal(_ context.Context, id string) (model.DRSignal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.signals[id]
	if !ok {
		return model.DRSignal{}, fmt.Errorf("signal %s: %w", id, ErrNotFound)
	}
	return cloneSignal(s), nil
}

func (m *MemoryStore) ListSignals(_ context.Context, q SignalQuery) ([]model.DRSignal, error) {
	m.mu.RLock()
	all := make([]model.DRSignal, 0, len(m.signals))
	for _, s := range m.signals {
		all = append(all, cloneSignal(s))
	}
	m.mu.RUnlock()
	return selectSignals(all, q), nil
}

func (m *MemoryStore) Close() error { return nil }

func clonePlan(p model.DRPlan) model.DRPlan {
	p.CohortAllocations = cloneSlice(p.CohortAllocations)
	p.ConstraintsApplied = cloneSlice(p.ConstraintsApplied)
	p.SituationSummary.Notes = cloneSlice(p.SituationSummary.Notes)
	return p
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneSignal(s model.DRSignal) model.DRSignal {
	if s.Metadata != nil {
		md := make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			md[k] = v
		}
		s.Metadata = md
	}
	if s.Response != nil {
		r := *s.Response
		s.Response = &r
	}
	return s
}
