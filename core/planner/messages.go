package planner

import (
	"fmt"

	"github.com/kilianp07/drplan/core/model"
)

type messageFunc func(c model.Cohort, mw float64) string

var segmentMessages = map[model.Segment]messageFunc{
	model.SegmentResidentialEV: func(_ model.Cohort, mw float64) string {
		return fmt.Sprintf("Help balance the grid! Delay EV charging for 2 hours and earn rewards. Target: %.1f MW reduction.", mw)
	},
	model.SegmentResidentialSolar: func(_ model.Cohort, mw float64) string {
		return fmt.Sprintf("Grid needs your help! Export stored energy during peak hours. Target: %.1f MW support.", mw)
	},
	model.SegmentCommercialHVAC: func(c model.Cohort, mw float64) string {
		return fmt.Sprintf("Demand Response Event: Adjust HVAC setpoints by %g°F. Target: %.1f MW reduction.", c.ComfortLimitF, mw)
	},
	model.SegmentIndustrial: func(_ model.Cohort, mw float64) string {
		return fmt.Sprintf("Load reduction requested: %.1f MW needed. Shift non-critical operations to earn incentives.", mw)
	},
}

func genericMessage(_ model.Cohort, mw float64) string {
	return fmt.Sprintf("Demand response event: %.1f MW reduction requested. Participate to earn rewards.", mw)
}

// OutreachMessage renders the customer notification for a cohort share.
// Segments without a dedicated template get the generic one.
func OutreachMessage(c model.Cohort, mw float64) string {
	if f, ok := segmentMessages[c.Segment.Canonical()]; ok {
		return f(c, mw)
	}
	return genericMessage(c, mw)
}
