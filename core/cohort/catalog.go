// Package cohort loads the cohort catalog and derives summaries from it.
package cohort

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drplan/core/model"
)

// ErrNotFound is returned when a cohort id is not in the catalog.
var ErrNotFound = errors.New("cohort not found")

// Parse decodes a catalog document. The format follows the file extension
// (.json, .yaml or .yml). Every cohort is defaulted and validated; duplicate
// ids are rejected.
func Parse(raw []byte, ext string) ([]model.Cohort, error) {
	var cohorts []model.Cohort
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &cohorts); err != nil {
			return nil, fmt.Errorf("decode cohorts: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cohorts); err != nil {
			return nil, fmt.Errorf("decode cohorts: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported cohort catalog format: %s", ext)
	}
	seen := make(map[string]struct{}, len(cohorts))
	for i := range cohorts {
		c := &cohorts[i]
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", model.ErrInvalidCohort, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return cohorts, nil
}

// FileSource reads the catalog from disk on every call so edits are picked
// up without a restart.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Cohorts(ctx context.Context) ([]model.Cohort, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read cohort catalog: %w", err)
	}
	return Parse(raw, filepath.Ext(f.Path))
}

// Catalog is an in-memory cohort set.
type Catalog struct {
	mu      sync.RWMutex
	cohorts []model.Cohort
	byID    map[string]int
}

// NewCatalog validates and indexes cohorts.
func NewCatalog(cohorts []model.Cohort) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(cohorts); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps the whole catalog after validating the new set.
func (c *Catalog) Replace(cohorts []model.Cohort) error {
	byID := make(map[string]int, len(cohorts))
	cp := make([]model.Cohort, len(cohorts))
	for i, co := range cohorts {
		co.SetDefaults()
		if err := co.Validate(); err != nil {
			return err
		}
		if _, dup := byID[co.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", model.ErrInvalidCohort, co.ID)
		}
		byID[co.ID] = i
		cp[i] = co
	}
	c.mu.Lock()
	c.cohorts, c.byID = cp, byID
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Cohorts(ctx context.Context) ([]model.Cohort, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Cohort, len(c.cohorts))
	copy(out, c.cohorts)
	return out, nil
}

func (c *Catalog) Get(id string) (model.Cohort, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return model.Cohort{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.cohorts[i], nil
}

// Source is anything that can list cohorts.
type Source interface {
	Cohorts(ctx context.Context) ([]model.Cohort, error)
}

// Find looks up one cohort in src.
func Find(ctx context.Context, src Source, id string) (model.Cohort, error) {
	cohorts, err := src.Cohorts(ctx)
	if err != nil {
		return model.Cohort{}, err
	}
	for _, c := range cohorts {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Cohort{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}
