package core

// safelimit.go scores a proposed map value against a tuning strategy.
//
// The strategy multipliers are heuristics, not engine physics: a larger
// multiplier means a more aggressive strategy, which raises the risk score
// and lowers the hard limit.

import (
	"math"
	"sort"
)

// DefaultStrategy is assumed when no strategy is given.
const DefaultStrategy = "Manual"

var strategyMultipliers = map[string]float64{
	"Heavy Duty": 0.8,
	"Gasoline":   1.2,
	"Diesel":     1.0,
	"Eco":        0.5,
	"Manual":     1.5,
}

// SafeLimit is the assessment of one value.
type SafeLimit struct {
	RiskScore float64 `json:"risk_score"`
	HardLimit float64 `json:"hard_limit"`
	Strategy  string  `json:"strategy"`
	IsSafe    bool    `json:"is_safe"`
}

// Strategies returns the known strategy names, sorted.
func Strategies() []string {
	names := make([]string, 0, len(strategyMultipliers))
	for name := range strategyMultipliers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StrategyMultiplier returns the multiplier for strategy. Unknown strategies
// use 1.0.
func StrategyMultiplier(strategy string) float64 {
	if m, ok := strategyMultipliers[strategy]; ok {
		return m
	}
	return 1.0
}

// CalculateSafeLimit scores value under strategy. The risk score is clamped
// to [0, 100].
func CalculateSafeLimit(value float64, strategy string) SafeLimit {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	m := StrategyMultiplier(strategy)

	risk := math.Min(100, math.Max(0, value/100*50*m))
	hardLimit := 150.0 / m

	return SafeLimit{
		RiskScore: risk,
		HardLimit: hardLimit,
		Strategy:  strategy,
		IsSafe:    value <= hardLimit,
	}
}
