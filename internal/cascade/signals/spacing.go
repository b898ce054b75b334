package signals

import (
	"math"
	"sort"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// spacingWeight scores inter-meal spacing: a sigmoid penalty for gaps short
// enough to stack insulin waves, a saturating bonus for a long overnight
// fast, and a small bonus when a meal lands in the post-training window.
// Needs at least two timed meals to say anything.
func spacingWeight(day *domain.Day, cfg *config.SpacingConfig) (float64, bool) {
	times := mealTimes(day.Meals)
	if len(times) < 2 {
		return 0, false
	}

	w := 0.0

	// Overlap penalty: each gap below the insulin-wave window contributes,
	// steeper the shorter the gap, capped in total.
	overlapPenalty := 0.0
	for i := 1; i < len(times); i++ {
		gap := times[i] - times[i-1]
		if gap < cfg.OverlapGapMin {
			short := float64(cfg.OverlapGapMin - gap)
			overlapPenalty += cfg.OverlapPenaltyMax * (2*num.Sigmoid(cfg.OverlapSlope*short) - 1) * 0.5
		}
	}
	w -= math.Min(overlapPenalty, cfg.OverlapPenaltyMax)

	// Night fasting: the span outside the eating window. Saturates at the
	// configured bonus as the fast approaches the target.
	eatingSpan := float64(times[len(times)-1]-times[0]) / 60
	fastHours := 24 - eatingSpan
	if fastHours > 10 {
		w += cfg.NightFastBonusMax * math.Tanh((fastHours-10)/(cfg.NightFastTargetHrs-10+1))
	}

	// Post-training refuel window.
	if mealAfterTraining(times, day.Trainings, cfg.PostTrainingMin) {
		w += cfg.PostTrainingBonus
	}

	return w, true
}

func mealTimes(meals []domain.Meal) []int {
	var times []int
	for _, m := range meals {
		if t, ok := domain.ParseClock(m.Time); ok {
			times = append(times, t)
		}
	}
	sort.Ints(times)
	return times
}

func mealAfterTraining(mealTimes []int, trainings []domain.Training, windowMin int) bool {
	if windowMin <= 0 {
		return false
	}
	for _, tr := range trainings {
		trTime, ok := domain.ParseClock(tr.Time)
		if !ok {
			continue
		}
		end := trTime + tr.EffectiveDuration()
		for _, mt := range mealTimes {
			if mt >= end && mt <= end+windowMin {
				return true
			}
		}
	}
	return false
}
