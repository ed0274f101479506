package model

import "time"

// GridSnapshot is a point-in-time view of system conditions. Nil fields were
// missing from the upstream payload.
type GridSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	SystemLoadMW *float64  `json:"system_load_mw,omitempty"`
	PricePerMWh  *float64  `json:"price_per_mwh,omitempty"`
	ReservesMW   *float64  `json:"reserves_mw,omitempty"`
}

// GridForecast holds the forecast daily peak.
type GridForecast struct {
	Timestamp  time.Time `json:"timestamp"`
	PeakLoadMW *float64  `json:"peak_load_mw,omitempty"`
	PeakHour   *int      `json:"peak_hour,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// GridData bundles the snapshot and forecast returned by a grid source.
// A non-empty Err marks the data as unavailable.
type GridData struct {
	Snapshot *GridSnapshot `json:"snapshot,omitempty"`
	Forecast *GridForecast `json:"forecast,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// Available reports whether the source produced usable data.
func (d GridData) Available() bool {
	return d.Err == "" && (d.Snapshot != nil || d.Forecast != nil)
}

// Float returns a pointer to f. It keeps literals short in tests and fixtures.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
