package planner

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/drplan/core/model"
)

// Score weights.
const (
	peakAlignmentPoints   = 30.0
	acceptancePoints      = 25.0
	flexPointsCap         = 20.0
	flexMWPerPoint        = 10.0
	commercialBonus       = 15.0
	reliabilityMultiplier = 15.0
	fastResponseBonus     = 20.0
	fastResponseHours     = 1.0
)

// Factors breaks a cohort score down into its inputs.
type Factors struct {
	PeakAlignment float64 `json:"peak_alignment"`
	Acceptance    float64 `json:"acceptance"`
	FlexMW        float64 `json:"flex_mw"`
}

// ScoredCohort is a cohort ranked for one planning window.
type ScoredCohort struct {
	Cohort      model.Cohort `json:"cohort"`
	Score       float64      `json:"score"`
	Factors     Factors      `json:"factors"`
	AvailableMW float64      `json:"available_mw"`
}

// Eligible reports whether the cohort can still be notified in time. It is a
// hard cutoff, never a score penalty.
func Eligible(c model.Cohort, w Window, now time.Time) bool {
	return w.NoticeHours(now) >= c.MinNoticeHours
}

// PeakAlignment returns the fraction of the window hours that are peak hours
// of the cohort. An empty window aligns with nothing.
func PeakAlignment(windowHours, peakHours []int) float64 {
	if len(windowHours) == 0 {
		return 0
	}
	peaks := make(map[int]struct{}, len(peakHours))
	for _, h := range peakHours {
		peaks[h] = struct{}{}
	}
	overlap := 0
	seen := make(map[int]struct{}, len(windowHours))
	for _, h := range windowHours {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		if _, ok := peaks[h]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(seen))
}

// strategyBonus returns the strategy-specific extra points for a cohort.
func strategyBonus(c model.Cohort, strategy model.Strategy) float64 {
	switch strategy {
	case model.StrategyCostMinimize:
		if c.Segment.IsCommercialOrIndustrial() {
			return commercialBonus
		}
	case model.StrategyReliability:
		return c.BaselineAcceptanceRate * reliabilityMultiplier
	case model.StrategyEmergency:
		if c.MinNoticeHours <= fastResponseHours {
			return fastResponseBonus
		}
	}
	return 0
}

// scoreCohort computes the desirability of one eligible cohort.
func scoreCohort(c model.Cohort, windowHours []int, strategy model.Strategy) ScoredCohort {
	f := Factors{
		PeakAlignment: PeakAlignment(windowHours, c.PeakHours),
		Acceptance:    c.BaselineAcceptanceRate,
		FlexMW:        c.FlexMW(),
	}
	score := f.PeakAlignment*peakAlignmentPoints +
		f.Acceptance*acceptancePoints +
		math.Min(f.FlexMW/flexMWPerPoint, flexPointsCap) +
		strategyBonus(c, strategy)
	return ScoredCohort{
		Cohort:      c,
		Score:       score,
		Factors:     f,
		AvailableMW: f.FlexMW * f.PeakAlignment * f.Acceptance,
	}
}

// ScoreCohorts ranks the eligible cohorts by descending score. Ties keep the
// input order.
func ScoreCohorts(cohorts []model.Cohort, w Window, strategy model.Strategy, now time.Time) []ScoredCohort {
	hours := w.Hours()
	scored := make([]ScoredCohort, 0, len(cohorts))
	for _, c := range cohorts {
		if !Eligible(c, w, now) {
			continue
		}
		scored = append(scored, scoreCohort(c, hours, strategy))
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}
