package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/drplan/core/model"
)

// ErrNoGridData is returned by Analyze when the grid source reported no data.
// The accompanying summary is fully defaulted and flagged as degraded.
var ErrNoGridData = errors.New("no grid data available")

// Fallback values used when a grid field is missing.
const (
	DefaultLoadMW      = 65000.0
	DefaultPricePerMWh = 45.0
	DefaultReservesMW  = 15000.0
	DefaultPeakLoadMW  = 72000.0
	DefaultPeakHour    = 17
)

const noDataNote = "grid data unavailable"

const (
	criticalReservesMW = 5000.0
	criticalLoadMW     = 75000.0
	highReservesMW     = 10000.0
	highLoadMW         = 70000.0
	moderateReservesMW = 15000.0
	moderateLoadMW     = 65000.0
)

// ClassifyStress applies the stress cascade; the first matching level wins.
func ClassifyStress(loadMW, reservesMW float64) model.StressLevel {
	switch {
	case reservesMW < criticalReservesMW || loadMW > criticalLoadMW:
		return model.StressCritical
	case reservesMW < highReservesMW || loadMW > highLoadMW:
		return model.StressHigh
	case reservesMW < moderateReservesMW || loadMW > moderateLoadMW:
		return model.StressModerate
	default:
		return model.StressLow
	}
}

// Analyze builds the situation summary for the window. Missing fields fall
// back to the documented defaults and mark the summary degraded.
func Analyze(data model.GridData, w Window) (model.SituationSummary, error) {
	var (
		s        model.SituationSummary
		snapshot model.GridSnapshot
		forecast model.GridForecast
		err      error
	)
	if !data.Available() {
		reason := data.Err
		if reason == "" {
			reason = "empty payload"
		}
		s.Degraded = true
		s.Notes = append(s.Notes, fmt.Sprintf("%s: %s", noDataNote, reason))
		err = ErrNoGridData
	}
	if data.Snapshot != nil {
		snapshot = *data.Snapshot
	}
	if data.Forecast != nil {
		forecast = *data.Forecast
	}

	s.CurrentLoadMW = fallback(&s, snapshot.SystemLoadMW, DefaultLoadMW, "system load")
	s.CurrentPrice = fallback(&s, snapshot.PricePerMWh, DefaultPricePerMWh, "price")
	s.ReservesMW = fallback(&s, snapshot.ReservesMW, DefaultReservesMW, "reserves")
	s.ForecastPeakMW = fallback(&s, forecast.PeakLoadMW, DefaultPeakLoadMW, "forecast peak load")
	if forecast.PeakHour != nil {
		s.ForecastPeakHour = *forecast.PeakHour
	} else {
		s.ForecastPeakHour = DefaultPeakHour
		markDefault(&s, "forecast peak hour", DefaultPeakHour)
	}

	s.WindowOverlapsPeak = w.ContainsHour(s.ForecastPeakHour)
	s.StressLevel = ClassifyStress(s.CurrentLoadMW, s.ReservesMW)
	return s, err
}

func fallback(s *model.SituationSummary, v *float64, def float64, field string) float64 {
	if v != nil {
		return *v
	}
	markDefault(s, field, def)
	return def
}

func markDefault(s *model.SituationSummary, field string, def any) {
	s.Degraded = true
	// The no-data note already covers every field.
	if len(s.Notes) > 0 && strings.HasPrefix(s.Notes[0], noDataNote) {
		return
	}
	s.Notes = append(s.Notes, fmt.Sprintf("%s missing, using default %v", field, def))
}
