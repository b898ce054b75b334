package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

func TestHouseholdWeight(t *testing.T) {
	cfg := &config.Default().Signals.Household

	tests := []struct {
		name     string
		actual   int
		baseline float64
		want     float64
	}{
		{"no activity scores zero", 0, 45, 0},
		{"baseline hit is half credit", 45, 45, 0.5},
		{"double baseline saturates at cap", 90, 45, 1.0},
		{"quadruple baseline still capped", 180, 45, 1.0},
		{"quarter baseline hits the floor", 11, 45, -0.3},
		{"zero baseline falls back to default", 45, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, householdWeight(tt.actual, tt.baseline, cfg), 0.001)
		})
	}
}

func TestStepsWeight(t *testing.T) {
	cfg := &config.Default().Signals.Steps

	assert.Zero(t, StepsWeight(0, 8000, cfg))
	assert.InDelta(t, 0, StepsWeight(4400, 8000, cfg), 0.001, "55%% of goal is the neutral point")
	assert.InDelta(t, 0.588, StepsWeight(8000, 8000, cfg), 0.001)
	assert.InDelta(t, -0.3, StepsWeight(1000, 8000, cfg), 0.001, "a near-sedentary day bottoms out at the floor")

	// The curve must flatten past the goal: doubling steps beyond it earns
	// less than the climb from half-goal to goal.
	atGoal := StepsWeight(8000, 8000, cfg)
	beyond := StepsWeight(16000, 8000, cfg)
	assert.Less(t, beyond-atGoal, atGoal-StepsWeight(4400, 8000, cfg))
	assert.LessOrEqual(t, beyond, cfg.MaxWeight)

	// Zero goal uses the configured default.
	assert.InDelta(t, StepsWeight(8000, 8000, cfg), StepsWeight(8000, 0, cfg), 0.001)
}

func TestTrainingWeight(t *testing.T) {
	cfg := &config.Default().Signals.Training

	base := TrainingWeight(domain.Training{Type: "cardio", Duration: 40}, 0, cfg)
	assert.InDelta(t, 1.732, base, 0.001)

	t.Run("session discounts", func(t *testing.T) {
		tr := domain.Training{Type: "cardio", Duration: 40}
		assert.InDelta(t, base*0.5, TrainingWeight(tr, 1, cfg), 0.001)
		assert.InDelta(t, base*0.25, TrainingWeight(tr, 2, cfg), 0.001)
		assert.InDelta(t, base*0.25, TrainingWeight(tr, 5, cfg), 0.001)
	})

	t.Run("intensity multipliers order types", func(t *testing.T) {
		hiit := TrainingWeight(domain.Training{Type: "hiit", Duration: 40}, 0, cfg)
		yoga := TrainingWeight(domain.Training{Type: "yoga", Duration: 40}, 0, cfg)
		assert.Greater(t, hiit, base)
		assert.Less(t, yoga, base)
	})

	t.Run("clamped at both ends", func(t *testing.T) {
		tiny := TrainingWeight(domain.Training{Type: "cardio", Duration: 1}, 0, cfg)
		assert.InDelta(t, cfg.MinWeight, tiny, 0.001, "any logged session earns at least the minimum")

		marathon := TrainingWeight(domain.Training{Type: "hiit", Duration: 300}, 0, cfg)
		assert.InDelta(t, cfg.MaxWeight, marathon, 0.001)
	})

	t.Run("diminishing returns on load", func(t *testing.T) {
		w60 := TrainingWeight(domain.Training{Type: "cardio", Duration: 60}, 0, cfg)
		w120 := TrainingWeight(domain.Training{Type: "cardio", Duration: 120}, 0, cfg)
		assert.Less(t, w120, w60*2)
	})
}

func TestOnsetWeight(t *testing.T) {
	cfg := &config.Default().Signals.Sleep
	optimum := 1380 // 23:00

	t.Run("at the optimum", func(t *testing.T) {
		w, hard := OnsetWeight(1380, optimum, cfg)
		assert.False(t, hard)
		assert.InDelta(t, 0, w, 0.001)
	})

	t.Run("earlier earns a shallow bonus", func(t *testing.T) {
		w, hard := OnsetWeight(1320, optimum, cfg)
		assert.False(t, hard)
		assert.InDelta(t, 0.583, w, 0.001)
	})

	t.Run("later costs steeper", func(t *testing.T) {
		w, hard := OnsetWeight(1470, optimum, cfg) // 00:30
		assert.False(t, hard)
		assert.InDelta(t, -1.523, w, 0.001)
		early, _ := OnsetWeight(1290, optimum, cfg)
		assert.Less(t, early, -w, "the bonus side of the curve is shallower than the penalty side")
	})

	t.Run("hard floor bypasses the curve", func(t *testing.T) {
		w, hard := OnsetWeight(1560, optimum, cfg) // 02:00
		assert.True(t, hard)
		assert.Equal(t, cfg.OnsetMaxPenalty, w)

		w, hard = OnsetWeight(1620, optimum, cfg)
		assert.True(t, hard)
		assert.Equal(t, cfg.OnsetMaxPenalty, w)
	})
}

func TestDurationWeight(t *testing.T) {
	cfg := &config.Default().Signals.Sleep

	t.Run("optimum earns max bonus", func(t *testing.T) {
		w, hard := DurationWeight(7.75, 7.75, 0, cfg)
		assert.False(t, hard)
		assert.InDelta(t, 1.0, w, 0.001)
	})

	t.Run("under-sleep is penalized harder than over-sleep", func(t *testing.T) {
		under, _ := DurationWeight(6.75, 7.75, 0, cfg)
		over, _ := DurationWeight(8.75, 7.75, 0, cfg)
		assert.Less(t, under, over)
	})

	t.Run("heavy training day stretches the optimum", func(t *testing.T) {
		plain, _ := DurationWeight(8.25, 7.75, 0, cfg)
		recovery, _ := DurationWeight(8.25, 7.75, 90, cfg)
		assert.Greater(t, recovery, plain, "8.25h is past the plain optimum but exactly on the recovery one")
		assert.InDelta(t, 1.0, recovery, 0.001)
	})

	t.Run("hard minimum bypasses the bell", func(t *testing.T) {
		w, hard := DurationWeight(4.5, 7.75, 0, cfg)
		assert.True(t, hard)
		assert.Equal(t, cfg.MaxPenalty, w)
	})
}

func TestChronotypeOptimum(t *testing.T) {
	cfg := &config.Default().Signals.Sleep

	t.Run("too few onsets falls back to band midpoint", func(t *testing.T) {
		assert.Equal(t, 1410, ChronotypeOptimum(nil, cfg))
		assert.Equal(t, 1410, ChronotypeOptimum([]float64{1380, 1390}, cfg))
	})

	t.Run("median within the band sticks", func(t *testing.T) {
		assert.Equal(t, 1380, ChronotypeOptimum([]float64{1380, 1380, 1380}, cfg))
	})

	t.Run("early chronotype shifts the optimum earlier", func(t *testing.T) {
		// Median 21:50, below the early-chronotype median.
		assert.Equal(t, 1280, ChronotypeOptimum([]float64{1300, 1310, 1320}, cfg))
	})

	t.Run("late chronotype clamps to the band then shifts later", func(t *testing.T) {
		// Median 02:00 clamps to 01:30, then the late shift applies.
		assert.Equal(t, 1560, ChronotypeOptimum([]float64{1500, 1560, 1620}, cfg))
	})
}

func TestNormalizeOnset(t *testing.T) {
	assert.Equal(t, 1380, NormalizeOnset(1380), "23:00 stays put")
	assert.Equal(t, 1470, NormalizeOnset(30), "00:30 sorts after midnight")
	assert.Equal(t, 1775, NormalizeOnset(335), "05:35 still counts as the previous night")
	assert.Equal(t, 360, NormalizeOnset(360), "06:00 is a new day")
}

func TestSleepHoursOf(t *testing.T) {
	assert.InDelta(t, 7.5, SleepHoursOf(&domain.Day{SleepHours: 7.5}), 0.001, "explicit field wins")
	assert.InDelta(t, 8.0, SleepHoursOf(&domain.Day{SleepStart: "23:00", SleepEnd: "07:00"}), 0.001)
	assert.InDelta(t, 7.0, SleepHoursOf(&domain.Day{SleepStart: "22:30", SleepEnd: "05:30"}), 0.001)
	assert.Zero(t, SleepHoursOf(&domain.Day{SleepStart: "23:00"}), "no wake time, no duration")
	assert.Zero(t, SleepHoursOf(&domain.Day{}))
}

func TestPersonalSleepOptimum(t *testing.T) {
	cfg := &config.Default().Signals.Sleep

	assert.InDelta(t, 7.75, personalSleepOptimum(nil, cfg), 0.001)
	assert.InDelta(t, 8.2, personalSleepOptimum([]float64{8.0, 8.2, 8.4}, cfg), 0.001)
	assert.InDelta(t, 9.0, personalSleepOptimum([]float64{10, 10.5, 11}, cfg), 0.001, "clamped to the sane range")
	assert.InDelta(t, 7.0, personalSleepOptimum([]float64{5, 5.5, 6}, cfg), 0.001)
}

func TestBlankStreakPenalty(t *testing.T) {
	tests := []struct {
		name  string
		blank int
		want  float64
	}{
		{"within the free days", 2, 0},
		{"first billed day", 3, -0.1},
		{"erosion accumulates", 4, -0.2},
		{"floored", 10, -0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, blankStreakPenalty(tt.blank, 2, -0.1, -0.3), 0.001)
		})
	}
}

func TestConfidence(t *testing.T) {
	cfg := &config.Default().Signals

	cov := map[domain.EventType]int{
		domain.EventSteps:    7,
		domain.EventTraining: 3,
	}
	assert.InDelta(t, 1.0, confidence(cov, domain.EventSteps, cfg), 0.001, "a full week earns full trust")
	assert.InDelta(t, 3.0/7.0, confidence(cov, domain.EventTraining, cfg), 0.001)
	assert.InDelta(t, cfg.ConfidenceMin, confidence(cov, domain.EventSleep, cfg), 0.001, "no coverage never zeroes a factor")
}

func TestLeadingStreak(t *testing.T) {
	weighed := func(d *domain.Day) bool { return d.WeightMorning > 0 }

	history := []*domain.Day{
		{WeightMorning: 82},
		{WeightMorning: 82.1},
		{},
		{WeightMorning: 81.9},
	}
	assert.Equal(t, 2, leadingStreak(history, weighed))

	withGap := []*domain.Day{
		{WeightMorning: 82},
		nil,
		{WeightMorning: 82.1},
	}
	assert.Equal(t, 1, leadingStreak(withGap, weighed), "an unrecorded day ends the streak")

	assert.Zero(t, leadingStreak(nil, weighed))
}

func TestCheckinWeight(t *testing.T) {
	cfg := &config.Default().Signals.Checkin

	assert.InDelta(t, 0.5, checkinWeight(Baselines{}, cfg), 0.001)
	assert.InDelta(t, 0.65, checkinWeight(Baselines{CheckinStreak: 3}, cfg), 0.001)
	assert.InDelta(t, 0.8, checkinWeight(Baselines{CheckinStreak: 20}, cfg), 0.001, "streak bonus is capped")
	assert.InDelta(t, 1.0, checkinWeight(Baselines{CheckinStreak: 20, WeightStable: true}, cfg), 0.001)
}

func TestSupplementsWeight(t *testing.T) {
	cfg := &config.Default().Signals.Supplements

	assert.Zero(t, supplementsWeight(2, 0, Baselines{}, cfg), "nothing planned, nothing scored")
	assert.InDelta(t, 0.5, supplementsWeight(2, 2, Baselines{}, cfg), 0.001)
	assert.InDelta(t, 0.15, supplementsWeight(1, 2, Baselines{}, cfg), 0.001)
	assert.InDelta(t, -0.2, supplementsWeight(0, 2, Baselines{}, cfg), 0.001)
	assert.InDelta(t, 0.7, supplementsWeight(2, 2, Baselines{SupplementsStreak: 10}, cfg), 0.001, "full adherence plus a capped streak bonus")
	// A partial day never earns the streak bonus.
	assert.InDelta(t, 0.15, supplementsWeight(1, 2, Baselines{SupplementsStreak: 10}, cfg), 0.001)
}

func TestMeasurementsWeight(t *testing.T) {
	cfg := &config.Default().Signals.Measure

	full := &domain.Day{Measurements: map[string]float64{
		"waist": 80, "chest": 100, "hips": 95, "thigh": 55, "arm": 32,
	}}
	partial := &domain.Day{Measurements: map[string]float64{"waist": 80, "chest": 100}}

	assert.Zero(t, measurementsWeight(&domain.Day{}, Baselines{LastMeasuredDaysAgo: -1}, cfg))
	assert.InDelta(t, 1.0, measurementsWeight(full, Baselines{LastMeasuredDaysAgo: -1}, cfg), 0.001)
	assert.InDelta(t, 0.4, measurementsWeight(partial, Baselines{LastMeasuredDaysAgo: -1}, cfg), 0.001)
	assert.InDelta(t, 0.5, measurementsWeight(full, Baselines{LastMeasuredDaysAgo: 2}, cfg), 0.001, "re-measuring right away is discounted")
}

func TestMeasurementsStalePenalty(t *testing.T) {
	cfg := &config.Default().Signals.Measure

	assert.Zero(t, measurementsStalePenalty(Baselines{LastMeasuredDaysAgo: -1}, cfg), "never measured is not punished")
	assert.Zero(t, measurementsStalePenalty(Baselines{LastMeasuredDaysAgo: 5}, cfg))
	assert.InDelta(t, -0.1, measurementsStalePenalty(Baselines{LastMeasuredDaysAgo: 10}, cfg), 0.001)
	assert.InDelta(t, -0.3, measurementsStalePenalty(Baselines{LastMeasuredDaysAgo: 20}, cfg), 0.001)
}

func TestSpacingWeight(t *testing.T) {
	cfg := &config.Default().Signals.Spacing

	t.Run("needs two timed meals", func(t *testing.T) {
		_, ok := spacingWeight(&domain.Day{Meals: []domain.Meal{{Time: "08:00"}}}, cfg)
		assert.False(t, ok)
		_, ok = spacingWeight(&domain.Day{Meals: []domain.Meal{{Time: "08:00"}, {}}}, cfg)
		assert.False(t, ok)
	})

	t.Run("well spaced day is positive", func(t *testing.T) {
		day := &domain.Day{Meals: []domain.Meal{
			{Time: "08:00"}, {Time: "13:00"}, {Time: "18:30"},
		}}
		w, ok := spacingWeight(day, cfg)
		require.True(t, ok)
		assert.Greater(t, w, 0.0)
	})

	t.Run("grazing pattern is penalized", func(t *testing.T) {
		day := &domain.Day{Meals: []domain.Meal{
			{Time: "12:00"}, {Time: "12:40"}, {Time: "13:30"}, {Time: "14:15"},
		}}
		spread := &domain.Day{Meals: []domain.Meal{
			{Time: "12:00"}, {Time: "16:00"},
		}}
		grazing, ok := spacingWeight(day, cfg)
		require.True(t, ok)
		wide, ok := spacingWeight(spread, cfg)
		require.True(t, ok)
		assert.Less(t, grazing, wide)
	})

	t.Run("post-training refuel bonus", func(t *testing.T) {
		base := &domain.Day{Meals: []domain.Meal{{Time: "08:00"}, {Time: "13:00"}}}
		refuel := &domain.Day{
			Meals:     base.Meals,
			Trainings: []domain.Training{{Time: "12:00", Duration: 40}},
		}
		plain, _ := spacingWeight(base, cfg)
		boosted, _ := spacingWeight(refuel, cfg)
		assert.InDelta(t, cfg.PostTrainingBonus, boosted-plain, 0.001)
	})
}
