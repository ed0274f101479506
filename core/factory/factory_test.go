package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store struct {
	Path    string
	MaxRows int
}

type storeConf struct {
	Path    string `json:"path"`
	MaxRows int    `json:"max_rows"`
}

func storeFactory(conf map[string]any) (*store, error) {
	var c storeConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &store{Path: c.Path, MaxRows: c.MaxRows}, nil
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*store]()
	require.NoError(t, reg.Register("sqlite", storeFactory))
	inst, err := reg.Create(ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "plans.db", "max_rows": 3}})
	require.NoError(t, err)
	assert.Equal(t, &store{Path: "plans.db", MaxRows: 3}, inst)
}

func TestDecode_WeakStrings(t *testing.T) {
	var c storeConf
	require.NoError(t, Decode(map[string]any{"path": "x", "max_rows": "42"}, &c))
	assert.Equal(t, 42, c.MaxRows)
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("z", nil))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	assert.ErrorContains(t, err, "known: [x]")
	assert.Panics(t, func() { reg.MustRegister("x", func(map[string]any) (int, error) { return 0, nil }) })
	assert.Equal(t, []string{"x"}, reg.Types())
}
