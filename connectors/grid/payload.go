package grid

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/drplan/core/model"
)

// Upstream feeds do not agree on a timestamp layout; naive ISO timestamps are
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type snapshotPayload struct {
	Timestamp    string   `json:"timestamp"`
	SystemLoadMW *float64 `json:"system_load_mw"`
	PricePerMWh  *float64 `json:"price_per_mwh"`
	ReservesMW   *float64 `json:"reserves_mw"`
}

type forecastPayload struct {
	Timestamp  string   `json:"timestamp"`
	PeakLoadMW *float64 `json:"peak_load_mw"`
	PeakHour   *int     `json:"peak_hour"`
	Confidence *float64 `json:"confidence"`
}

func decodeSnapshot(b []byte) (*model.GridSnapshot, error) {
	var p snapshotPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &model.GridSnapshot{
		Timestamp:    parseTimestamp(p.Timestamp),
		SystemLoadMW: p.SystemLoadMW,
		PricePerMWh:  p.PricePerMWh,
		ReservesMW:   p.ReservesMW,
	}, nil
}

func decodeForecast(b []byte) (*model.GridForecast, error) {
	var p forecastPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if p.PeakHour != nil && (*p.PeakHour < 0 || *p.PeakHour > 23) {
		return nil, fmt.Errorf("decode forecast: peak_hour %d out of range", *p.PeakHour)
	}
	return &model.GridForecast{
		Timestamp:  parseTimestamp(p.Timestamp),
		PeakLoadMW: p.PeakLoadMW,
		PeakHour:   p.PeakHour,
		Confidence: p.Confidence,
	}, nil
}
