package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/drplan/api"
	"github.com/kilianp07/drplan/connectors"
	"github.com/kilianp07/drplan/core/factory"
	"github.com/kilianp07/drplan/core/metrics"
	"github.com/kilianp07/drplan/core/planner"
	"github.com/kilianp07/drplan/core/planstore"
	"github.com/kilianp07/drplan/infra/monitoring"
	"github.com/kilianp07/drplan/infra/mqtt"
)

type Config struct {
	Planner planner.Config        `json:"planner"`
	Grid    connectors.Conf       `json:"grid"`
	Cohorts CohortsConfig         `json:"cohorts"`
	Store   factory.ModuleConfig  `json:"store"`
	Audit   planstore.AuditConfig `json:"audit"`
	History HistoryConfig         `json:"history"`
	MQTT    mqtt.Config           `json:"mqtt"`
	Metrics metrics.Config        `json:"metrics"`
	API     api.Config            `json:"api"`
	Sentry  monitoring.Config     `json:"sentry"`
	Logging LoggingConfig         `json:"logging"`
}

// CohortsConfig points at the cohort catalog file (yaml or json).
type CohortsConfig struct {
	Path string `json:"path"`
}

func (c *CohortsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/cohorts.yaml"
	}
}

func (c CohortsConfig) Validate() error {
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".yaml", ".yml", ".json":
		return nil
	}
	return fmt.Errorf("cohorts: unsupported catalog format %q", c.Path)
}

// HistoryConfig sets where executions are persisted. An empty path keeps
// them in memory.
type HistoryConfig struct {
	Path string `json:"path"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Grid.SetDefaults()
	c.Cohorts.SetDefaults()
	if c.Store.Type == "" {
		c.Store.Type = planstore.BackendMemory
	}
	c.Audit.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	c.API.SetDefaults()
	c.Sentry.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Cohorts.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
