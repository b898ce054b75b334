package nutrition

import (
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Product is one entry of the nutrition database.
type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Kcal100 float64 `json:"kcal100"` // kcal per 100g
	Harm    float64 `json:"harm"`    // 0..10, >=7 flags a harmful product
}

// ProductIndex resolves meal items against the nutrition database. A miss
// is not an error: scoring falls back to the kcal cached on the item.
type ProductIndex interface {
	Product(id string) (Product, bool)
}

// StaticIndex is an in-memory ProductIndex, used by the CLI (loaded from a
// JSON snapshot) and by tests.
type StaticIndex map[string]Product

// Product implements ProductIndex.
func (s StaticIndex) Product(id string) (Product, bool) {
	p, ok := s[id]
	return p, ok
}

// ItemKcal prices one meal item: index value when resolvable, otherwise
// the kcal100 cached on the item itself.
func ItemKcal(item domain.MealItem, index ProductIndex) float64 {
	grams := item.Grams
	if grams <= 0 {
		grams = 100
	}
	kcal100 := item.Kcal100
	if index != nil && item.ProductID != "" {
		if p, ok := index.Product(item.ProductID); ok {
			kcal100 = p.Kcal100
		}
	}
	return kcal100 * grams / 100
}

// MealKcal prices a whole meal.
func MealKcal(meal domain.Meal, index ProductIndex) float64 {
	total := 0.0
	for _, it := range meal.Items {
		total += ItemKcal(it, index)
	}
	return total
}

// MealHasHarm reports whether any item resolves to a product at or above
// the harm threshold. Unresolvable items are treated as harmless.
func MealHasHarm(meal domain.Meal, index ProductIndex, threshold float64) bool {
	if index == nil {
		return false
	}
	for _, it := range meal.Items {
		if it.ProductID == "" {
			continue
		}
		if p, ok := index.Product(it.ProductID); ok && p.Harm >= threshold {
			return true
		}
	}
	return false
}
