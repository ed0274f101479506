package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kilianp07/drplan/core/model"
)

// Constraint labels attached to every plan.
const (
	ConstraintShortNotice = "Short notice period"
	ConstraintPeakWindow  = "Peak hour window"
	ConstraintComfort     = "Customer comfort limits enforced"
	ConstraintWeeklyLimit = "Max weekly events checked"
)

// Constraints lists the operational constraints applied to a plan.
func Constraints(cfg Config, w Window, now time.Time) []string {
	var out []string
	if w.NoticeHours(now) < cfg.ShortNoticeHours {
		out = append(out, ConstraintShortNotice)
	}
	if h := w.Start.Hour(); h >= cfg.PeakWindowStartHour && h <= cfg.PeakWindowEndHour {
		out = append(out, ConstraintPeakWindow)
	}
	return append(out, ConstraintComfort, ConstraintWeeklyLimit)
}

// Explain renders the operator-facing narrative of a plan, one fact per line.
func Explain(strategy model.Strategy, allocations []model.CohortAllocation, s model.SituationSummary, confidence float64) string {
	var (
		predicted float64
		accounts  int64
	)
	for _, a := range allocations {
		predicted += a.PredictedMW
		accounts += int64(a.NumAccounts)
	}
	lines := []string{
		"Strategy: " + strategy.Title(),
		"System stress level: " + string(s.StressLevel),
		fmt.Sprintf("Targeting %.1f MW reduction across %s accounts", predicted, humanize.Comma(accounts)),
	}
	if s.WindowOverlapsPeak {
		lines = append(lines, "Window overlaps with forecasted peak demand")
	}
	lines = append(lines, fmt.Sprintf("Confidence level: %.1f%%", confidence*100))
	switch strategy {
	case model.StrategyCostMinimize:
		lines = append(lines, fmt.Sprintf("Current price: $%.2f/MWh - targeting high-cost periods", s.CurrentPrice))
	case model.StrategyReliability:
		lines = append(lines, fmt.Sprintf("Reserve margin: %.0f MW - enhancing grid stability", s.ReservesMW))
	case model.StrategyEmergency:
		lines = append(lines, "EMERGENCY MODE - Maximum reduction requested")
	case model.StrategyBalanced:
		lines = append(lines, "Load spread across cohorts to limit customer fatigue")
	}
	return strings.Join(lines, "\n")
}

// explainMissingTarget is used when neither grid data nor an explicit target
// is available.
func explainMissingTarget(strategy model.Strategy, s model.SituationSummary) string {
	lines := []string{
		"Strategy: " + strategy.Title(),
		"Sorry, no grid data is available to derive a reduction target.",
		"Please provide an explicit target_mw to plan this window.",
	}
	lines = append(lines, s.Notes...)
	return strings.Join(lines, "\n")
}
