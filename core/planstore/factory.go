package planstore

import (
	"github.com/kilianp07/drplan/core/factory"
)

// Store backends accepted in the store configuration.
const (
	BackendMemory  = "memory"
	BackendJSONDir = "jsondir"
	BackendSQLite  = "sqlite"
)

type pathConf struct {
	Path string `json:"path"`
	Dir  string `json:"dir"`
}

// Registry builds stores from factory.ModuleConfig.
var Registry = factory.NewRegistry[Store]()

func init() {
	Registry.MustRegister(BackendMemory, func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
	Registry.MustRegister(BackendJSONDir, func(conf map[string]any) (Store, error) {
		c := pathConf{Dir: "data/plans"}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONDirStore(c.Dir)
	})
	Registry.MustRegister(BackendSQLite, func(conf map[string]any) (Store, error) {
		c := pathConf{Path: "data/drplan.db"}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// New builds the configured store. An empty type selects the memory store.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		cfg.Type = BackendMemory
	}
	return Registry.Create(cfg)
}

// AuditConfig configures the rotating audit trail. An empty path disables it.
type AuditConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func (c *AuditConfig) SetDefaults() {
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// NewAuditLog returns the rotating log, or NopAudit when no path is set.
func NewAuditLog(c AuditConfig) (AuditLog, error) {
	if c.Path == "" {
		return NopAudit{}, nil
	}
	c.SetDefaults()
	return NewRotatingAuditLog(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
}
