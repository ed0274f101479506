package planner

import "github.com/kilianp07/drplan/core/model"

// TargetMW derives the reduction to request when the caller gave none.
func TargetMW(s model.SituationSummary, strategy model.Strategy, baseMW float64) float64 {
	switch strategy {
	case model.StrategyEmergency:
		return baseMW * 3
	case model.StrategyReliability:
		switch s.StressLevel {
		case model.StressCritical:
			return baseMW * 2.5
		case model.StressHigh:
			return baseMW * 2
		default:
			return baseMW * 1.5
		}
	case model.StrategyCostMinimize:
		switch {
		case s.CurrentPrice > 100:
			return baseMW * 2
		case s.CurrentPrice > 50:
			return baseMW * 1.5
		default:
			return baseMW
		}
	case model.StrategyBalanced:
		return baseMW * 1.5
	}
	return baseMW
}
