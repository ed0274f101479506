package planner

import "fmt"

// Config holds the tunable parameters of the planning engine.
type Config struct {
	// BaseTargetMW is the reference reduction multiplied by the strategy
	// factor when the caller does not provide a target.
	BaseTargetMW float64 `json:"base_target_mw"`
	// BalancedCapFraction caps the share of the target a single cohort may
	// carry under the balanced strategy.
	BalancedCapFraction float64 `json:"balanced_cap_fraction"`
	// ShortNoticeHours flags plans starting sooner than this.
	ShortNoticeHours float64 `json:"short_notice_hours"`
	// PeakWindowStartHour and PeakWindowEndHour bound the "peak hour window"
	// constraint on the window start hour (inclusive).
	PeakWindowStartHour int `json:"peak_window_start_hour"`
	PeakWindowEndHour   int `json:"peak_window_end_hour"`
}

// DefaultConfig returns the reference calibration.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults applies the reference calibration to unset fields.
func (c *Config) SetDefaults() {
	if c.BaseTargetMW == 0 {
		c.BaseTargetMW = 50
	}
	if c.BalancedCapFraction == 0 {
		c.BalancedCapFraction = 0.3
	}
	if c.ShortNoticeHours == 0 {
		c.ShortNoticeHours = 4
	}
	if c.PeakWindowStartHour == 0 && c.PeakWindowEndHour == 0 {
		c.PeakWindowStartHour = 17
		c.PeakWindowEndHour = 20
	}
}

// Validate checks the calibration is usable.
func (c Config) Validate() error {
	if c.BaseTargetMW <= 0 {
		return fmt.Errorf("planner: base_target_mw must be positive")
	}
	if c.BalancedCapFraction <= 0 || c.BalancedCapFraction > 1 {
		return fmt.Errorf("planner: balanced_cap_fraction must be within (0,1]")
	}
	if c.ShortNoticeHours < 0 {
		return fmt.Errorf("planner: short_notice_hours must not be negative")
	}
	if c.PeakWindowStartHour < 0 || c.PeakWindowEndHour > 23 || c.PeakWindowStartHour > c.PeakWindowEndHour {
		return fmt.Errorf("planner: invalid peak window %d-%d", c.PeakWindowStartHour, c.PeakWindowEndHour)
	}
	return nil
}
