package model

import (
	"errors"
	"fmt"
	"strings"
)

// Segment identifies the customer category of a cohort.
type Segment string

const (
	SegmentResidentialEV       Segment = "residential_ev"
	SegmentResidentialSolar    Segment = "residential_solar"
	SegmentResidentialStandard Segment = "residential_standard"
	SegmentCommercialHVAC      Segment = "commercial_hvac"
	SegmentCommercialLighting  Segment = "commercial_lighting"
	SegmentIndustrial          Segment = "industrial"
	SegmentUnknown             Segment = "unknown"
)

var knownSegments = []Segment{
	SegmentResidentialEV,
	SegmentResidentialSolar,
	SegmentResidentialStandard,
	SegmentCommercialHVAC,
	SegmentCommercialLighting,
	SegmentIndustrial,
}

// ParseSegment maps a free-text segment tag onto the closed Segment set.
// Exact matches win; otherwise the first known segment contained in the tag is
// used (e.g. "industrial_heavy" -> industrial). Unmatched tags yield
// SegmentUnknown.
func ParseSegment(tag string) Segment {
	t := strings.ToLower(strings.TrimSpace(tag))
	for _, s := range knownSegments {
		if t == string(s) {
			return s
		}
	}
	for _, s := range knownSegments {
		if strings.Contains(t, string(s)) {
			return s
		}
	}
	return SegmentUnknown
}

// Canonical maps the tag onto the closed Segment set, see ParseSegment.
func (s Segment) Canonical() Segment {
	return ParseSegment(string(s))
}

// IsCommercialOrIndustrial reports whether the tag names a commercial or
// industrial class, e.g. "commercial_retail" or "light_industrial".
func (s Segment) IsCommercialOrIndustrial() bool {
	t := strings.ToLower(string(s))
	return strings.Contains(t, "commercial") || strings.Contains(t, "industrial")
}

// Cohort is a group of accounts sharing flexibility characteristics.
type Cohort struct {
	ID                     string   `json:"id" yaml:"id"`
	Name                   string   `json:"name" yaml:"name"`
	Segment                Segment  `json:"segment" yaml:"segment"`
	ZipCodes               []string `json:"zip_codes" yaml:"zip_codes"`
	NumAccounts            int      `json:"num_accounts" yaml:"num_accounts"`
	AvgConsumptionKWh      float64  `json:"avg_consumption_kwh" yaml:"avg_consumption_kwh"`
	FlexKWPerAccount       float64  `json:"flex_kw_per_account" yaml:"flex_kw_per_account"`
	PeakHours              []int    `json:"peak_hours" yaml:"peak_hours"`
	BaselineAcceptanceRate float64  `json:"baseline_acceptance_rate" yaml:"baseline_acceptance_rate"`
	ComfortLimitF          float64  `json:"comfort_limit_f" yaml:"comfort_limit_f"`
	MaxEventsPerWeek       int      `json:"max_events_per_week" yaml:"max_events_per_week"`
	MinNoticeHours         float64  `json:"min_notice_hours" yaml:"min_notice_hours"`
}

// FlexMW returns the total flexible load of the cohort in MW.
func (c Cohort) FlexMW() float64 {
	return float64(c.NumAccounts) * c.FlexKWPerAccount / 1000
}

// SetDefaults fills optional attributes the way the catalog format documents them.
// The segment tag is normalized but kept as written in the catalog.
func (c *Cohort) SetDefaults() {
	if c.ComfortLimitF == 0 {
		c.ComfortLimitF = 2
	}
	if c.MaxEventsPerWeek == 0 {
		c.MaxEventsPerWeek = 3
	}
	if c.MinNoticeHours == 0 {
		c.MinNoticeHours = 1
	}
	c.Segment = Segment(strings.ToLower(strings.TrimSpace(string(c.Segment))))
	if c.Segment == "" {
		c.Segment = SegmentUnknown
	}
}

// ErrInvalidCohort is wrapped by Validate failures.
var ErrInvalidCohort = errors.New("invalid cohort")

// Validate checks field-level constraints. It is applied when the catalog is
// ingested; the planner assumes validated cohorts.
func (c Cohort) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCohort)
	}
	if c.NumAccounts < 0 {
		return fmt.Errorf("%w %s: num_accounts must not be negative", ErrInvalidCohort, c.ID)
	}
	if c.FlexKWPerAccount < 0 {
		return fmt.Errorf("%w %s: flex_kw_per_account must not be negative", ErrInvalidCohort, c.ID)
	}
	if c.BaselineAcceptanceRate < 0 || c.BaselineAcceptanceRate > 1 {
		return fmt.Errorf("%w %s: baseline_acceptance_rate must be within [0,1]", ErrInvalidCohort, c.ID)
	}
	if c.MinNoticeHours < 0 {
		return fmt.Errorf("%w %s: min_notice_hours must not be negative", ErrInvalidCohort, c.ID)
	}
	for _, h := range c.PeakHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w %s: peak hour %d out of range", ErrInvalidCohort, c.ID, h)
		}
	}
	return nil
}
