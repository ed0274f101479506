package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// LoggingConfig sets the level and output format of the zerolog loggers.
type LoggingConfig struct {
	// Level is a zerolog level name such as "debug" or "info".
	Level string `json:"level"`
	// Console switches to the human readable writer.
	Console bool `json:"console"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Apply exports the settings to the environment read by infra/logger.
// Variables already set by the operator win.
func (c LoggingConfig) Apply() {
	if os.Getenv("LOG_LEVEL") == "" {
		_ = os.Setenv("LOG_LEVEL", c.Level)
	}
	if c.Console && os.Getenv("APP_ENV") == "" {
		_ = os.Setenv("APP_ENV", "dev")
	}
}
