package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/nutrition"
)

// richHistory builds n fully tracked prior days so every factor reaches
// full confidence. history[0] is yesterday.
func richHistory(n int) []*domain.Day {
	days := make([]*domain.Day, n)
	for i := range days {
		days[i] = &domain.Day{
			WeightMorning: 82.0,
			HouseholdMin:  50,
			Steps:         9000,
			SleepStart:    "23:00",
			SleepEnd:      "07:00",
			Meals: []domain.Meal{
				{Time: "08:00", Items: []domain.MealItem{{Name: "oats", Grams: 100, Kcal100: 500}}},
				{Time: "13:00", Items: []domain.MealItem{{Name: "bowl", Grams: 100, Kcal100: 500}}},
				{Time: "18:30", Items: []domain.MealItem{{Name: "plate", Grams: 100, Kcal100: 500}}},
			},
			Trainings:         []domain.Training{{Time: "17:00", Duration: 60, Type: "strength"}},
			SupplementsTaken:  []string{"omega3", "d3"},
			Measurements:      map[string]float64{"waist": 80, "chest": 100, "hips": 95, "thigh": 55, "arm": 32},
			SupplementsPlanned: 2,
		}
	}
	return days
}

func testProfile() domain.Profile {
	return domain.Profile{
		StepsGoal:          8000,
		TargetKcal:         2000,
		GoalMode:           domain.GoalDeficit,
		PlannedSupplements: 2,
	}
}

func TestExtractFullyTrackedDay(t *testing.T) {
	x := NewExtractor(config.Default(), nil, nil)
	history := richHistory(14)
	day := richHistory(1)[0]
	day.Date = "2025-06-15"

	out := x.Extract(Input{Day: day, History: history, Profile: testProfile()})

	assert.Len(t, out.Events, 12)
	assert.True(t, out.TrainingDay)
	assert.False(t, out.HarmfulNight)
	assert.InDelta(t, 0.75, out.ConsumedRatio, 0.001)
	assert.Empty(t, out.Warnings)
	assert.Zero(t, out.StreakPenalty, "every habit is alive")
	assert.Greater(t, out.Synergy, 0.0)

	for i := 1; i < len(out.Events); i++ {
		assert.LessOrEqual(t, out.Events[i-1].SortKey, out.Events[i].SortKey, "events come out in day order")
	}
	for _, ev := range out.Events {
		assert.True(t, ev.Positive, "every factor landed positive on a good day: %s", ev.Label)
	}

	score := out.DailyScore()
	assert.Greater(t, score, 5.0)
	assert.Less(t, score, 15.0)
}

func TestExtractEmptyDay(t *testing.T) {
	x := NewExtractor(config.Default(), nil, nil)

	out := x.Extract(Input{Day: &domain.Day{Date: "2025-06-15"}, History: richHistory(14), Profile: testProfile()})
	assert.Empty(t, out.Events)
	assert.False(t, out.TrainingDay)
	assert.Zero(t, out.ConsumedRatio)
	assert.Zero(t, out.Synergy)
	assert.Zero(t, out.StreakPenalty, "rich history keeps every streak alive")
	assert.Zero(t, out.DailyScore())

	out = x.Extract(Input{})
	assert.Empty(t, out.Events)
	assert.Zero(t, out.DailyScore())
}

func TestExtractHarmfulNightMeal(t *testing.T) {
	index := nutrition.StaticIndex{
		"cola": {ID: "cola", Name: "cola", Kcal100: 42, Harm: 8},
	}
	x := NewExtractor(config.Default(), nil, index)

	day := &domain.Day{
		Date: "2025-06-15",
		Meals: []domain.Meal{
			{Time: "02:30", Items: []domain.MealItem{{ProductID: "cola", Grams: 500}}},
		},
	}
	out := x.Extract(Input{Day: day, History: richHistory(14), Profile: testProfile()})

	assert.True(t, out.HarmfulNight)
	require.Len(t, out.Events, 1)
	ev := out.Events[0]
	assert.Equal(t, domain.EventMeal, ev.Type)
	assert.False(t, ev.Positive)
	assert.Equal(t, "harmful product", ev.BreakReason)
	assert.InDelta(t, -1.0, ev.Weight, 0.001)
}

func TestExtractLateMealViolation(t *testing.T) {
	x := NewExtractor(config.Default(), nil, nil)

	day := &domain.Day{
		Date: "2025-06-15",
		Meals: []domain.Meal{
			{Time: "23:30", Items: []domain.MealItem{{Name: "snack", Grams: 100, Kcal100: 300}}},
		},
	}
	out := x.Extract(Input{Day: day, History: richHistory(14), Profile: testProfile()})

	assert.False(t, out.HarmfulNight, "late but not harmful")
	require.Len(t, out.Events, 1)
	assert.False(t, out.Events[0].Positive)
	assert.Equal(t, "late meal", out.Events[0].BreakReason)
}

func TestExtractStreakErosion(t *testing.T) {
	x := NewExtractor(config.Default(), nil, nil)

	// Four quiet days: meals logged, but household and training dropped.
	history := make([]*domain.Day, 4)
	for i := range history {
		history[i] = &domain.Day{
			Meals: []domain.Meal{{Time: "13:00", Items: []domain.MealItem{{Name: "bowl", Grams: 100, Kcal100: 600}}}},
		}
	}
	day := &domain.Day{
		Date:  "2025-06-15",
		Meals: []domain.Meal{{Time: "13:00", Items: []domain.MealItem{{Name: "bowl", Grams: 100, Kcal100: 600}}}},
	}

	out := x.Extract(Input{Day: day, History: history, Profile: testProfile()})

	// Household: 4 blank days, 2 free, -0.1 per day.
	// Training: 4 blank days, 2 free, -0.15 per day.
	assert.InDelta(t, -0.5, out.StreakPenalty, 0.001)
}

func TestScoreMealsCalorieOverage(t *testing.T) {
	cfg := config.Default()
	profile := testProfile() // deficit, 2000 kcal target

	day := &domain.Day{
		Meals: []domain.Meal{
			{Time: "08:00", Items: []domain.MealItem{{Name: "a", Grams: 100, Kcal100: 900}}},
			{Time: "13:00", Items: []domain.MealItem{{Name: "b", Grams: 100, Kcal100: 900}}},
			{Time: "18:30", Items: []domain.MealItem{{Name: "c", Grams: 100, Kcal100: 900}}},
		},
	}
	out := scoreMeals(day, profile, 1380, nil, nil, &cfg.Signals.Meals)

	require.Len(t, out.events, 3)
	assert.True(t, out.events[1].Positive, "still under budget at lunch")
	assert.False(t, out.events[2].Positive, "the meal that blows the budget turns negative")
	assert.Equal(t, "calorie overage", out.events[2].BreakReason)
	assert.Less(t, out.events[2].Weight, out.events[1].Weight)
	assert.InDelta(t, 1.35, out.consumedRatio, 0.001)
}

func TestSynergyBonus(t *testing.T) {
	cfg := &config.Default().Signals.Synergy

	t.Run("rest day recovery", func(t *testing.T) {
		events := []domain.Event{{Type: domain.EventSleep, Weight: 0.8}}
		got := synergyBonus(&domain.Day{}, events, mealsOutcome{consumedRatio: 1.0}, cfg)
		assert.InDelta(t, cfg.RestRecovery, got, 0.001)
	})

	t.Run("no recovery bonus after overeating", func(t *testing.T) {
		events := []domain.Event{{Type: domain.EventSleep, Weight: 0.8}}
		got := synergyBonus(&domain.Day{}, events, mealsOutcome{consumedRatio: 1.4}, cfg)
		assert.Zero(t, got)
	})

	t.Run("full stack plus morning discipline", func(t *testing.T) {
		day := &domain.Day{HouseholdMin: 40}
		events := []domain.Event{
			{Type: domain.EventTraining, Weight: 1.5},
			{Type: domain.EventSleep, Weight: 0.8},
			{Type: domain.EventSteps, Weight: 0.5},
			{Type: domain.EventCheckin, Weight: 0.7},
		}
		got := synergyBonus(day, events, mealsOutcome{consumedRatio: 0.9}, cfg)
		assert.InDelta(t, cfg.FullStack+cfg.MorningDiscipline, got, 0.001)
	})

	t.Run("quality rhythm", func(t *testing.T) {
		events := []domain.Event{{Type: domain.EventSpacing, Weight: 0.4}}
		got := synergyBonus(&domain.Day{}, events, mealsOutcome{highQualityMeals: 2, consumedRatio: 1.4}, cfg)
		assert.InDelta(t, cfg.QualityRhythm, got, 0.001)
	})
}

func TestPostTrainingWindow(t *testing.T) {
	trainings := []domain.Training{{Time: "17:00", Duration: 60}}

	at := func(hhmm string) time.Time {
		ts, _ := time.Parse("2006-01-02 15:04", "2025-06-15 "+hhmm)
		return ts
	}

	assert.True(t, postTrainingWindow(trainings, at("17:30")))
	assert.True(t, postTrainingWindow(trainings, at("19:00")))
	assert.False(t, postTrainingWindow(trainings, at("19:01")))
	assert.False(t, postTrainingWindow(trainings, at("16:30")), "before the session does not count")
	assert.False(t, postTrainingWindow(nil, at("18:00")))
	assert.False(t, postTrainingWindow([]domain.Training{{Duration: 60}}, at("18:00")), "untimed session, no window")
	assert.False(t, postTrainingWindow(trainings, time.Time{}))
}

func TestExtractSupplementsNeedDayData(t *testing.T) {
	x := NewExtractor(config.Default(), nil, nil)
	history := richHistory(14)
	profile := testProfile()

	// A planned count on the profile alone must not open the factor; a
	// day where only meals were logged says nothing about supplements.
	day := &domain.Day{
		Date:  "2025-06-15",
		Meals: []domain.Meal{{Time: "08:00", Items: []domain.MealItem{{Name: "oats", Grams: 100, Kcal100: 400}}}},
	}
	out := x.Extract(Input{Day: day, History: history, Profile: profile})
	for _, ev := range out.Events {
		assert.NotEqual(t, domain.EventSupplements, ev.Type, "no supplement data logged, no supplement event")
	}

	// Logged intake without a plan anywhere still scores, treating the
	// taken count as the plan.
	day = &domain.Day{
		Date:             "2025-06-15",
		SupplementsTaken: []string{"omega3"},
	}
	out = x.Extract(Input{Day: day, History: history, Profile: domain.Profile{StepsGoal: 8000, TargetKcal: 2000, GoalMode: domain.GoalDeficit}})
	var found *domain.Event
	for i := range out.Events {
		if out.Events[i].Type == domain.EventSupplements {
			found = &out.Events[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "supplements 1/1", found.Label)
	assert.True(t, found.Positive)
}
