package planner

import (
	"math"

	"github.com/kilianp07/drplan/core/model"
)

// Allocate distributes targetMW greedily over the ranked cohorts. Each cohort
// receives at most its available MW; under the balanced strategy it also
// receives at most capFraction of the target. Allocation stops once the target
// is reached, and cohorts left with nothing are omitted.
func Allocate(scored []ScoredCohort, targetMW float64, strategy model.Strategy, capFraction float64) []model.CohortAllocation {
	var (
		allocations []model.CohortAllocation
		allocated   float64
	)
	if targetMW <= 0 {
		return allocations
	}
	for _, sc := range scored {
		if allocated >= targetMW {
			break
		}
		share := math.Min(sc.AvailableMW, targetMW-allocated)
		if strategy == model.StrategyBalanced {
			share = math.Min(share, targetMW*capFraction)
		}
		share = floor2(share)
		if share <= 0 {
			continue
		}
		c := sc.Cohort
		acceptance := clamp01(c.BaselineAcceptanceRate)
		allocations = append(allocations, model.CohortAllocation{
			CohortID:              c.ID,
			CohortName:            c.Name,
			Segment:               c.Segment,
			TargetMW:              share,
			PredictedMW:           floor2(share * acceptance),
			AcceptanceProbability: round3(acceptance * sc.Factors.PeakAlignment),
			NumAccounts:           c.NumAccounts,
			MessageTemplate:       OutreachMessage(c, share),
		})
		allocated += share
	}
	return allocations
}

// floor2 truncates to two decimals so rounded shares never sum above the raw
// ones. The epsilon absorbs representation error such as 0.29*100.
func floor2(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
