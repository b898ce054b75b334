package nutrition

import (
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// MealQualityScorer prices one meal on a 0..100 scale. The production
// application supplies its own scorer; the engine only requires the
// contract. An error means "no score" and callers fall back to a
// conservative default weight.
type MealQualityScorer interface {
	Score(meal domain.Meal, targetKcal float64, index ProductIndex) (float64, error)
}

// HeuristicScorer is the documented default MealQualityScorer: a
// harm-and-density heuristic that tracks the full scorer's direction
// without its micronutrient model.
type HeuristicScorer struct{}

// Score implements MealQualityScorer. It never returns an error; missing
// data degrades toward a neutral score.
func (HeuristicScorer) Score(meal domain.Meal, targetKcal float64, index ProductIndex) (float64, error) {
	if len(meal.Items) == 0 {
		return 50, nil
	}

	gramSum, harmSum := 0.0, 0.0
	for _, it := range meal.Items {
		g := it.Grams
		if g <= 0 {
			g = 100
		}
		harm := 0.0
		if index != nil && it.ProductID != "" {
			if p, ok := index.Product(it.ProductID); ok {
				harm = p.Harm
			}
		}
		gramSum += g
		harmSum += harm * g
	}
	avgHarm := 0.0
	if gramSum > 0 {
		avgHarm = harmSum / gramSum
	}

	score := 75.0
	score -= avgHarm * 7 // harm 10 wipes out the meal

	// Oversized single meals score down: more than 45% of the daily target
	// in one sitting is rarely a quality choice.
	if targetKcal > 0 {
		share := MealKcal(meal, index) / targetKcal
		if share > 0.45 {
			score -= (share - 0.45) * 60
		}
	}

	return num.Clamp(score, 0, 100), nil
}
