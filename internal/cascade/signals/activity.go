package signals

import (
	"fmt"
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
)

// householdWeight scores household activity against the personalized
// baseline on a log2 curve: hitting the baseline is worth +0.5, doubling it
// saturates at the cap, a quarter of it goes negative.
func householdWeight(actualMin int, baseline float64, cfg *config.HouseholdConfig) float64 {
	if actualMin <= 0 {
		return 0
	}
	if baseline <= 0 {
		baseline = cfg.DefaultBaselineMin
	}
	ratio := float64(actualMin) / baseline
	w := 0.5 + 0.5*math.Log2(ratio)
	return num.Clamp(w, cfg.MinWeight, cfg.MaxWeight)
}

// StepsWeight scores steps against the goal on a saturating tanh: the curve
// flattens past the goal so chasing 200% of target cannot buy the day.
func StepsWeight(steps, goal int, cfg *config.StepsConfig) float64 {
	if steps <= 0 {
		return 0
	}
	if goal <= 0 {
		goal = cfg.DefaultGoal
	}
	ratio := float64(steps) / float64(goal)
	w := cfg.MaxWeight * math.Tanh(cfg.TanhScale*(ratio-0.55))
	return num.Clamp(w, cfg.MinWeight, cfg.MaxWeight)
}

func stepsLabel(steps, goal int) string {
	ratio := float64(steps) / float64(goal)
	k := math.Round(float64(steps)/100) / 10
	switch {
	case ratio >= 1.2:
		return fmt.Sprintf("Steps %.1fk (beyond goal)", k)
	case ratio >= 1.0:
		return fmt.Sprintf("Steps %.1fk (goal met)", k)
	default:
		return fmt.Sprintf("Steps %d%% of goal", int(math.Round(ratio*100)))
	}
}
