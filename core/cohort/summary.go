package cohort

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drplan/core/model"
)

// SegmentSummary aggregates the cohorts of one segment.
type SegmentSummary struct {
	Count    int     `json:"count"`
	Accounts int     `json:"accounts"`
	FlexMW   float64 `json:"flex_mw"`
}

// CatalogSummary aggregates a cohort catalog.
type CatalogSummary struct {
	TotalCohorts  int                               `json:"total_cohorts"`
	TotalAccounts int                               `json:"total_accounts"`
	TotalFlexMW   float64                           `json:"total_flex_mw"`
	BySegment     map[model.Segment]*SegmentSummary `json:"by_segment"`
}

// Summary totals accounts and flexible MW, overall and per segment.
func Summary(cohorts []model.Cohort) CatalogSummary {
	s := CatalogSummary{
		TotalCohorts: len(cohorts),
		BySegment:    make(map[model.Segment]*SegmentSummary),
	}
	flex := make([]float64, len(cohorts))
	for i, c := range cohorts {
		flex[i] = c.FlexMW()
		s.TotalAccounts += c.NumAccounts
		seg, ok := s.BySegment[c.Segment]
		if !ok {
			seg = &SegmentSummary{}
			s.BySegment[c.Segment] = seg
		}
		seg.Count++
		seg.Accounts += c.NumAccounts
		seg.FlexMW += flex[i]
	}
	s.TotalFlexMW = round2(floats.Sum(flex))
	for _, seg := range s.BySegment {
		seg.FlexMW = round2(seg.FlexMW)
	}
	return s
}

// Assessment estimates how much flexibility a cohort offers right now.
type Assessment struct {
	CohortID              string   `json:"cohort_id"`
	InPeak                bool     `json:"in_peak"`
	AvailableMW           float64  `json:"available_mw"`
	Confidence            float64  `json:"confidence"`
	Constraints           []string `json:"constraints"`
	ParticipationEstimate float64  `json:"participation_estimate"`
}

const (
	peakAvailability    = 0.9
	offPeakAvailability = 0.5
	peakConfidence      = 0.85
	offPeakConfidence   = 0.65
)

// Flexibility assesses the cohort for the hour of now.
func Flexibility(c model.Cohort, now time.Time) Assessment {
	inPeak := false
	for _, h := range c.PeakHours {
		if h == now.Hour() {
			inPeak = true
			break
		}
	}
	availability, confidence := offPeakAvailability, offPeakConfidence
	if inPeak {
		availability, confidence = peakAvailability, peakConfidence
	}
	constraints := []string{
		fmt.Sprintf("Max %d events per week", c.MaxEventsPerWeek),
		fmt.Sprintf("Min %g hours notice", c.MinNoticeHours),
	}
	if c.ComfortLimitF > 0 {
		constraints = append(constraints, fmt.Sprintf("Comfort limit %g°F", c.ComfortLimitF))
	}
	return Assessment{
		CohortID:              c.ID,
		InPeak:                inPeak,
		AvailableMW:           round2(c.FlexMW() * availability),
		Confidence:            confidence,
		Constraints:           constraints,
		ParticipationEstimate: math.Round(c.BaselineAcceptanceRate*availability*1000) / 1000,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
