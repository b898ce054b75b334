package signals

import (
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// checkinWeight rewards the morning weigh-in: a flat base, a small bonus
// for keeping the streak alive, and another for weight staying inside the
// stability band over the last week.
func checkinWeight(b Baselines, cfg *config.CheckinConfig) float64 {
	w := cfg.Base
	w += math.Min(cfg.StreakBonusMax, cfg.StreakBonusStep*float64(b.CheckinStreak))
	if b.WeightStable {
		w += cfg.StabilityBonus
	}
	return w
}

// measurementsWeight scores body measurements by completeness. Measuring
// again within a few days of the last full set earns a discount so the
// factor cannot be farmed by daily re-measuring.
func measurementsWeight(day *domain.Day, b Baselines, cfg *config.MeasureConfig) float64 {
	filled := 0
	for _, v := range day.Measurements {
		if v > 0 {
			filled++
		}
	}
	if filled == 0 {
		return 0
	}
	expected := cfg.ExpectedFields
	if expected <= 0 {
		expected = 5
	}
	completeness := math.Min(1, float64(filled)/float64(expected))
	w := cfg.FullWeight * completeness
	if b.LastMeasuredDaysAgo > 0 && b.LastMeasuredDaysAgo <= cfg.RecentWindow {
		w *= cfg.RecentDiscount
	}
	return w
}

// measurementsStalePenalty is the absent-today erosion keyed on how long
// ago the last measurement happened.
func measurementsStalePenalty(b Baselines, cfg *config.MeasureConfig) float64 {
	if b.LastMeasuredDaysAgo < 0 {
		return 0
	}
	switch {
	case b.LastMeasuredDaysAgo > cfg.VeryStaleDays:
		return cfg.VeryStalePenalty
	case b.LastMeasuredDaysAgo > cfg.StaleDays:
		return cfg.StalePenalty
	}
	return 0
}

// supplementsWeight scores adherence as taken/planned, linearly from the
// poor floor up to the full weight, plus a small streak bonus.
func supplementsWeight(taken, planned int, b Baselines, cfg *config.SupplementsConfig) float64 {
	if planned <= 0 {
		return 0
	}
	ratio := num.Clamp(float64(taken)/float64(planned), 0, 1)
	w := cfg.PoorWeight + (cfg.FullWeight-cfg.PoorWeight)*ratio
	if ratio >= 1 {
		w += math.Min(cfg.StreakBonusMax, cfg.StreakBonusStep*float64(b.SupplementsStreak))
	}
	return w
}
