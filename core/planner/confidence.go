package planner

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/drplan/core/model"
)

const (
	baseConfidence   = 0.7
	stressAdjustment = 0.1
	situationWeight  = 0.7
	acceptanceWeight = 0.3
)

// Confidence estimates how likely the plan is to deliver. A plan without
// allocations has zero confidence.
func Confidence(allocations []model.CohortAllocation, stress model.StressLevel) float64 {
	if len(allocations) == 0 {
		return 0
	}
	base := baseConfidence
	switch stress {
	case model.StressLow:
		base += stressAdjustment
	case model.StressCritical:
		base -= stressAdjustment
	}
	probs := make([]float64, len(allocations))
	for i, a := range allocations {
		probs[i] = a.AcceptanceProbability
	}
	c := base*situationWeight + stat.Mean(probs, nil)*acceptanceWeight
	return round3(math.Max(0, math.Min(1, c)))
}
