package planstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kilianp07/drplan/core/model"
)

// JSONDirStore writes one JSON document per record under dir/plans and
// dir/signals, which keeps plans readable by hand.
type JSONDirStore struct {
	dir string
	mu  sync.Mutex
}

func NewJSONDirStore(dir string) (*JSONDirStore, error) {
	for _, sub := range []string{"plans", "signals"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &JSONDirStore{dir: dir}, nil
}

func (s *JSONDirStore) path(kind, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid %s id %q", kind, id)
	}
	return filepath.Join(s.dir, kind, id+".json"), nil
}

func (s *JSONDirStore) write(kind, id string, v any) error {
	p, err := s.path(kind, id)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *JSONDirStore) read(kind, id string, v any) error {
	notFound := fmt.Errorf("%s %s: %w", strings.TrimSuffix(kind, "s"), id, ErrNotFound)
	p, err := s.path(kind, id)
	if err != nil {
		return notFound
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return notFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (s *JSONDirStore) readAll(kind string, each func([]byte) error) error {
	files, err := filepath.Glob(filepath.Join(s.dir, kind, "*.json"))
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if err := each(b); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func (s *JSONDirStore) SavePlan(_ context.Context, p model.DRPlan) error {
	return s.write("plans", p.ID, p)
}

func (s *JSONDirStore) GetPlan(_ context.Context, id string) (model.DRPlan, error) {
	var p model.DRPlan
	err := s.read("plans", id, &p)
	return p, err
}

func (s *JSONDirStore) ListPlans(_ context.Context, q PlanQuery) ([]model.DRPlan, error) {
	var all []model.DRPlan
	err := s.readAll("plans", func(b []byte) error {
		var p model.DRPlan
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		all = append(all, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return selectPlans(all, q), nil
}

func (s *JSONDirStore) SaveSignal(_ context.Context, sig model.DRSignal) error {
	return s.write("signals", sig.ID, sig)
}

func (s *JSONDirStore) GetSignal(_ context.Context, id string) (model.DRSignal, error) {
	var sig model.DRSignal
	err := s.read("signals", id, &sig)
	return sig, err
}

func (s *JSONDirStore) ListSignals(_ context.Context, q SignalQuery) ([]model.DRSignal, error) {
	var all []model.DRSignal
	err := s.readAll("signals", func(b []byte) error {
		var sig model.DRSignal
		if err := json.Unmarshal(b, &sig); err != nil {
			return err
		}
		all = append(all, sig)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return selectSignals(all, q), nil
}

func (s *JSONDirStore) Close() error { return nil }
