package signals

import (
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// synergyBonus adds fixed bonuses for combinations that reinforce each
// other within one day. Bonuses are additive, independent of the underlying
// factor magnitudes, and capped in total.
func synergyBonus(day *domain.Day, events []domain.Event, m mealsOutcome, cfg *config.SynergyConfig) float64 {
	bonus := 0.0

	sleepW, hasSleep := eventWeight(events, domain.EventSleep)
	stepsW, hasSteps := eventWeight(events, domain.EventSteps)
	spacingW, hasSpacing := eventWeight(events, domain.EventSpacing)
	_, hasCheckin := eventWeight(events, domain.EventCheckin)
	trainW, hasTraining := eventWeight(events, domain.EventTraining)

	// Rest-day recovery: no training, adequate sleep, no overeating.
	if !hasTraining && hasSleep && sleepW > 0 && (m.consumedRatio == 0 || m.consumedRatio <= 1.1) {
		bonus += cfg.RestRecovery
	}

	// Quality rhythm: several high-quality meals with healthy spacing.
	if m.highQualityMeals >= 2 && hasSpacing && spacingW > 0 {
		bonus += cfg.QualityRhythm
	}

	// Morning discipline: weighed in and already moving.
	if hasCheckin && (day.HouseholdMin > 0 || trainedBeforeNoon(day.Trainings)) {
		bonus += cfg.MorningDiscipline
	}

	// Full stack: training, sleep and steps all landed positive.
	if hasTraining && trainW > 0 && hasSleep && sleepW > 0 && hasSteps && stepsW > 0 {
		bonus += cfg.FullStack
	}

	return math.Min(bonus, cfg.Cap)
}

// eventWeight returns the summed weight of all events of a type.
func eventWeight(events []domain.Event, t domain.EventType) (float64, bool) {
	sum, found := 0.0, false
	for _, e := range events {
		if e.Type == t {
			sum += e.Weight
			found = true
		}
	}
	return sum, found
}

func trainedBeforeNoon(trainings []domain.Training) bool {
	for _, tr := range trainings {
		if t, ok := domain.ParseClock(tr.Time); ok && t < 720 {
			return true
		}
	}
	return false
}
