package signals

import (
	"fmt"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/nutrition"
)

// mealsOutcome carries the per-meal events plus the day-level calorie facts
// the contribution normalizer's overrides key on.
type mealsOutcome struct {
	events           []domain.Event
	warnings         []string
	consumedKcal     float64
	consumedRatio    float64 // consumed/target, 0 when no target
	harmfulNight     bool    // harmful product eaten in the night window
	highQualityMeals int     // meals scoring in the top remap band
}

// scoreMeals prices every meal: quality remap, circadian multiplier,
// cumulative-calorie sigmoid penalty, and hard violations that force the
// minimum weight regardless of quality.
func scoreMeals(
	day *domain.Day,
	profile domain.Profile,
	bedtimeMin int,
	scorer nutrition.MealQualityScorer,
	index nutrition.ProductIndex,
	cfg *config.MealsConfig,
) mealsOutcome {
	out := mealsOutcome{}
	target := profile.TargetKcal
	penaltyAt := caloriePenaltyThreshold(profile.GoalMode, cfg)
	lateHard := clockOrDefault(cfg.LateMealHard, "23:00")
	nightEnd := clockOrDefault(cfg.NightWindowEnd, "06:00")
	breakfastEnd := clockOrDefault(cfg.BreakfastBandEnd, "11:00")

	for i, meal := range day.Meals {
		mealKcal := nutrition.MealKcal(meal, index)
		out.consumedKcal += mealKcal
		ratio := 0.0
		if target > 0 {
			ratio = out.consumedKcal / target
		}

		timeMin, hasTime := domain.ParseClock(meal.Time)
		isNight := hasTime && timeMin < nightEnd
		isLate := hasTime && (timeMin >= lateHard || isNight)
		hasHarm := nutrition.MealHasHarm(meal, index, cfg.HarmThreshold)
		if hasHarm && isNight {
			out.harmfulNight = true
		}

		var weight float64
		var breakReason string
		violation := hasHarm || isLate

		switch {
		case violation:
			weight = cfg.ViolationWeight
			if hasHarm {
				breakReason = "harmful product"
			} else {
				breakReason = "late meal"
			}
		default:
			q, err := scoreQuality(meal, target, scorer, index)
			if err != nil {
				// Collaborator failure is non-fatal: conservative default.
				out.warnings = append(out.warnings, fmt.Sprintf("meal quality scorer failed for %s: %v", mealLabel(meal, i), err))
				weight = cfg.FallbackWeight
			} else {
				weight = num.Clamp((q-cfg.QualityOffset)/cfg.QualitySpan, cfg.MinWeight, cfg.MaxWeight)
			}

			// Circadian band: breakfast-band meals count more, meals close
			// to the personal bedtime count less.
			if hasTime {
				switch {
				case timeMin < breakfastEnd:
					weight *= cfg.BreakfastMult
				case nearBedtime(timeMin, bedtimeMin, cfg.NearBedtimeMin):
					weight *= cfg.NearBedtimeMult
				}
			}

			if weight >= cfg.MaxWeight*0.65 {
				out.highQualityMeals++
			}
		}

		// Running-calorie sigmoid: engages only past the goal-mode
		// threshold, saturates at the configured amplitude.
		if ratio > penaltyAt && penaltyAt > 0 {
			over := ratio - penaltyAt
			weight -= cfg.CaloriePenaltyMax * (2*num.Sigmoid(cfg.PenaltySlope*over) - 1)
		}

		positive := weight >= 0 && !violation
		if !positive && breakReason == "" {
			breakReason = "calorie overage"
		}

		sortKey := 500 + i*120
		if hasTime {
			sortKey = timeMin
		}
		out.events = append(out.events, domain.Event{
			Type:        domain.EventMeal,
			Time:        meal.Time,
			Positive:    positive,
			Weight:      weight,
			Label:       mealLabel(meal, i),
			SortKey:     sortKey,
			BreakReason: breakReason,
		})
	}

	if target > 0 {
		out.consumedRatio = out.consumedKcal / target
	}
	return out
}

func scoreQuality(meal domain.Meal, target float64, scorer nutrition.MealQualityScorer, index nutrition.ProductIndex) (float64, error) {
	if scorer == nil {
		scorer = nutrition.HeuristicScorer{}
	}
	return scorer.Score(meal, target, index)
}

func caloriePenaltyThreshold(mode domain.GoalMode, cfg *config.MealsConfig) float64 {
	switch mode {
	case domain.GoalDeficit:
		return cfg.DeficitPenaltyAt
	case domain.GoalBulk:
		return cfg.BulkPenaltyAt
	default:
		return cfg.MaintenancePenaltyAt
	}
}

// nearBedtime reports whether a meal lands within the pre-bedtime window.
func nearBedtime(mealMin, bedtimeMin, windowMin int) bool {
	if bedtimeMin <= 0 || windowMin <= 0 {
		return false
	}
	m := NormalizeOnset(mealMin)
	return m >= bedtimeMin-windowMin && m < bedtimeMin
}

func mealLabel(meal domain.Meal, index int) string {
	if t, ok := domain.ParseClock(meal.Time); ok {
		switch {
		case t < 600:
			return "early meal"
		case t < 660:
			return "breakfast"
		case t < 720:
			return "late breakfast"
		case t < 840:
			return "lunch"
		case t < 1020:
			return "snack"
		case t < 1200:
			return "dinner"
		default:
			return "late meal"
		}
	}
	fallback := []string{"breakfast", "lunch", "snack", "dinner"}
	if index < len(fallback) {
		return fallback[index]
	}
	return fmt.Sprintf("meal %d", index+1)
}
