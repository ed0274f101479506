package connectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/drplan/auth"
	"github.com/kilianp07/drplan/core/model"
)

// GridConnector fetches the current grid snapshot and forecast.
type GridConnector interface {
	Load(ctx context.Context) (model.GridData, error)
	Name() string
}

// Option configures a connector after construction.
type Option func(GridConnector) error

// ErrIncompatibleOption is the format used when an option targets another
// connector type.
const ErrIncompatibleOption = "option %s is not compatible with connector %s"

// Connector identifiers accepted in Conf.Source.
const (
	SourceFile = "file"
	SourceAPI  = "api"
)

// Conf selects and configures the grid data source.
type Conf struct {
	Source         string    `json:"source"`
	Dir            string    `json:"dir"`
	BaseURL        string    `json:"base_url"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	ForecastHours  int       `json:"forecast_hours"`
	Auth           auth.Conf `json:"auth"`
}

func (c *Conf) SetDefaults() {
	if c.Source == "" {
		c.Source = SourceFile
	}
	if c.Dir == "" {
		c.Dir = "data/grid"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
	if c.ForecastHours == 0 {
		c.ForecastHours = 24
	}
}

func (c Conf) Validate() error {
	switch c.Source {
	case SourceFile:
		if c.Dir == "" {
			return errors.New("grid: dir is required for the file source")
		}
	case SourceAPI:
		if c.BaseURL == "" {
			return errors.New("grid: base_url is required for the api source")
		}
	default:
		return fmt.Errorf("grid: unknown source %q", c.Source)
	}
	if c.TimeoutSeconds < 0 {
		return errors.New("grid: timeout_seconds must not be negative")
	}
	return c.Auth.Validate()
}

// Timeout returns the per-request timeout.
func (c Conf) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
