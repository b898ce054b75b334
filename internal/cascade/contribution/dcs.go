// Package contribution normalizes a raw daily score into the bounded,
// override-aware Daily Contribution Score (DCS).
package contribution

import (
	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// DayFacts carries the day-level facts the overrides key on.
type DayFacts struct {
	ConsumedRatio float64 // calories consumed / target, 0 when no target
	HarmfulNight  bool    // harmful product eaten in the night window
	TrainingDay   bool
	GoalMode      domain.GoalMode
}

// Normalize maps the daily score into [floor, cap] via the calibration
// target, then applies override precedence: critical violations first, then
// goal-aware deficit tiers, then the bulk exemption. At most one override
// class fires.
func Normalize(dailyScore, momentumTarget float64, facts DayFacts, cfg *config.ContributionConfig) float64 {
	base := num.Clamp(dailyScore/momentumTarget, cfg.Floor, cfg.Cap)

	dcs, override := applyOverrides(base, facts, cfg)
	if override != "" {
		log.Debug().
			Str("component", "cascade").
			Str("override", override).
			Float64("base_dcs", base).
			Float64("dcs", dcs).
			Float64("consumed_ratio", facts.ConsumedRatio).
			Msg("contribution override applied")
	}
	return dcs
}

func applyOverrides(base float64, facts DayFacts, cfg *config.ContributionConfig) (float64, string) {
	ratio := facts.ConsumedRatio
	blowout := ratio > cfg.BlowoutRatio

	// Critical violations take precedence over everything.
	switch {
	case facts.HarmfulNight && blowout:
		return cfg.CriticalComboDCS, "harmful_night_and_blowout"
	case facts.HarmfulNight:
		return cfg.HarmfulNightDCS, "harmful_night"
	case blowout:
		// Bulk goals tolerate a surplus: the generic excess-calorie
		// override is waived below the exemption ratio.
		if facts.GoalMode == domain.GoalBulk && ratio <= cfg.BulkExemptRatio {
			return base, ""
		}
		if facts.GoalMode != domain.GoalDeficit {
			return cfg.CalorieBlowoutDCS, "calorie_blowout"
		}
	}

	// Goal-aware deficit tiers: training days earn extra allowance before
	// the tiers engage.
	if facts.GoalMode == domain.GoalDeficit && ratio > 0 {
		tolerance := 1.0
		if facts.TrainingDay {
			tolerance = cfg.TrainingTolerance
		}
		switch {
		case ratio > cfg.DeficitSevereRatio*tolerance:
			return cfg.DeficitSevereDCS, "deficit_severe"
		case ratio > cfg.DeficitCriticalOver*tolerance:
			return cfg.DeficitCriticalDCS, "deficit_critical"
		case ratio > cfg.DeficitTargetMax*tolerance:
			// Tightened floor: the day can score no better than this tier.
			if base > cfg.DeficitTightFloor {
				return cfg.DeficitTightFloor, "deficit_tight_floor"
			}
			return base, ""
		}
	}

	return base, ""
}
