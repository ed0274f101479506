package planner

import (
	"time"

	"github.com/kilianp07/drplan/core/model"
)

var testNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return time.Date(2025, 7, 15, hour, 0, 0, 0, time.UTC)
}

func eveningWindow() Window {
	return Window{Start: at(17), End: at(19)}
}

func testCohorts() []model.Cohort {
	return []model.Cohort{
		{
			ID: "ev_austin", Name: "Austin EV owners", Segment: model.SegmentResidentialEV,
			NumAccounts: 5000, FlexKWPerAccount: 2, PeakHours: []int{17, 18, 19, 20},
			BaselineAcceptanceRate: 0.7, ComfortLimitF: 2, MaxEventsPerWeek: 3, MinNoticeHours: 2,
		},
		{
			ID: "hvac_dallas", Name: "Dallas offices", Segment: model.SegmentCommercialHVAC,
			NumAccounts: 200, FlexKWPerAccount: 50, PeakHours: []int{14, 15, 16, 17, 18},
			BaselineAcceptanceRate: 0.8, ComfortLimitF: 2, MaxEventsPerWeek: 3, MinNoticeHours: 1,
		},
		{
			ID: "ind_houston", Name: "Houston plants", Segment: model.SegmentIndustrial,
			NumAccounts: 10, FlexKWPerAccount: 1000, PeakHours: []int{9, 10, 11, 17, 18},
			BaselineAcceptanceRate: 0.9, ComfortLimitF: 2, MaxEventsPerWeek: 3, MinNoticeHours: 48,
		},
	}
}

// bigCohorts have far more flexibility than any derived target.
func bigCohorts(n int) []model.Cohort {
	out := make([]model.Cohort, n)
	for i := range out {
		out[i] = model.Cohort{
			ID: string(rune('a' + i)), Name: "big", Segment: model.SegmentIndustrial,
			NumAccounts: 100, FlexKWPerAccount: 2000, PeakHours: []int{17, 18, 19},
			BaselineAcceptanceRate: 0.9, MinNoticeHours: 1,
		}
	}
	return out
}

func gridData(load, reserves, price float64, peakHour int) model.GridData {
	return model.GridData{
		Snapshot: &model.GridSnapshot{
			Timestamp:    testNow,
			SystemLoadMW: model.Float(load),
			PricePerMWh:  model.Float(price),
			ReservesMW:   model.Float(reserves),
		},
		Forecast: &model.GridForecast{
			Timestamp:  testNow,
			PeakLoadMW: model.Float(76000),
			PeakHour:   model.Int(peakHour),
			Confidence: model.Float(0.9),
		},
	}
}
