package signals

import (
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Baselines carries everything the factor scorers personalize on: medians
// over the recent window, chronotype, habit streaks, and per-factor data
// coverage for confidence damping. Recomputed per call; cheap.
type Baselines struct {
	HouseholdMedianMin float64 // 0 means no history, use population default
	OnsetOptimalMin    int     // minutes after midnight, normalized (>1440 = after midnight)
	SleepOptimalHours  float64

	Coverage map[domain.EventType]int // days with data over the confidence window

	CheckinStreak       int
	SupplementsStreak   int
	WeightStable        bool
	LastMeasuredDaysAgo int // -1 when never measured in the window
	PrevDayTrainingMin  int
	HouseholdBlankDays  int
	TrainingBlankDays   int
}

// NormalizeOnset shifts an after-midnight onset into a continuous scale so
// 01:30 sorts after 23:00. Anything before 06:00 is treated as past
// midnight.
func NormalizeOnset(mins int) int {
	if mins < 360 {
		return mins + 1440
	}
	return mins
}

// computeBaselines derives personalization from up to 30 prior days.
// history[0] is yesterday. Nil entries are days with no record.
func computeBaselines(history []*domain.Day, cfg *config.SignalsConfig) Baselines {
	b := Baselines{
		Coverage:            make(map[domain.EventType]int),
		LastMeasuredDaysAgo: -1,
	}

	confDays := cfg.ConfidenceDays
	if confDays <= 0 {
		confDays = 14
	}

	var householdVals, onsetVals, durationVals, weights []float64

	for i, day := range history {
		if day == nil {
			continue
		}
		if i < confDays {
			countCoverage(b.Coverage, day)
		}
		if day.HouseholdMin > 0 && len(householdVals) < confDays {
			householdVals = append(householdVals, float64(day.HouseholdMin))
		}
		if mins, ok := domain.ParseClock(day.SleepStart); ok {
			onsetVals = append(onsetVals, float64(NormalizeOnset(mins)))
		}
		if h := SleepHoursOf(day); h > 0 {
			durationVals = append(durationVals, h)
		}
		if day.WeightMorning > 0 && len(weights) < 7 {
			weights = append(weights, day.WeightMorning)
		}
	}

	// Adaptive household baseline: median of non-zero values, but only when
	// at least 3 of the prior 14 days reported anything.
	if len(householdVals) >= 3 {
		b.HouseholdMedianMin = num.Median(householdVals)
	}

	b.OnsetOptimalMin = ChronotypeOptimum(onsetVals, &cfg.Sleep)
	b.SleepOptimalHours = personalSleepOptimum(durationVals, &cfg.Sleep)

	b.CheckinStreak = leadingStreak(history, func(d *domain.Day) bool { return d.WeightMorning > 0 })
	b.SupplementsStreak = leadingStreak(history, func(d *domain.Day) bool { return len(d.SupplementsTaken) > 0 })
	b.HouseholdBlankDays = leadingStreak(history, func(d *domain.Day) bool { return d.HouseholdMin == 0 })
	b.TrainingBlankDays = leadingStreak(history, func(d *domain.Day) bool { return len(d.Trainings) == 0 })

	if len(weights) >= 3 {
		b.WeightStable = num.Stdev(weights) <= 0.3
	}

	for i, day := range history {
		if day != nil && hasMeasurements(day) {
			b.LastMeasuredDaysAgo = i + 1
			break
		}
	}

	if len(history) > 0 && history[0] != nil {
		for _, tr := range history[0].Trainings {
			b.PrevDayTrainingMin += tr.EffectiveDuration()
		}
	}

	return b
}

// ChronotypeOptimum returns the personalized optimal bedtime: the median of
// prior onsets clamped to a plausible band, then shifted to respect early or
// late chronotypes.
func ChronotypeOptimum(onsets []float64, cfg *config.SleepConfig) int {
	bandLo := clockOrDefault(cfg.OnsetBandEarly, "21:30")
	bandHi := NormalizeOnset(clockOrDefault(cfg.OnsetBandLate, "01:30"))

	if len(onsets) < 3 {
		return (bandLo + bandHi) / 2
	}

	median := num.Median(onsets)
	optimum := int(num.Clamp(median, float64(bandLo), float64(bandHi)))

	earlyMedian := clockOrDefault(cfg.ChronoEarlyMedian, "22:30")
	lateMedian := NormalizeOnset(clockOrDefault(cfg.ChronoLateMedian, "00:00"))
	switch {
	case median < float64(earlyMedian):
		optimum += cfg.ChronoEarlyShift
	case median > float64(lateMedian):
		optimum += cfg.ChronoLateShift
	}
	return optimum
}

// personalSleepOptimum centers the duration bell on the user's own median
// when enough history exists, clamped to a sane range.
func personalSleepOptimum(durations []float64, cfg *config.SleepConfig) float64 {
	if len(durations) < 3 {
		return cfg.DefaultOptimalHours
	}
	return num.Clamp(num.Median(durations), 7.0, 9.0)
}

func clockOrDefault(s, fallback string) int {
	if mins, ok := domain.ParseClock(s); ok {
		return mins
	}
	mins, _ := domain.ParseClock(fallback)
	return mins
}

// leadingStreak counts consecutive days from yesterday backward matching
// pred. Nil days count as matching for absence-style predicates, so the
// predicate receives a non-nil day and nil entries terminate presence
// streaks but extend absence streaks.
func leadingStreak(history []*domain.Day, pred func(*domain.Day) bool) int {
	streak := 0
	for _, day := range history {
		if day == nil {
			// Unknown day: presence streaks end, absence streaks should
			// not be inflated either. Treat as a stop.
			break
		}
		if !pred(day) {
			break
		}
		streak++
	}
	return streak
}

func hasMeasurements(d *domain.Day) bool {
	for _, v := range d.Measurements {
		if v > 0 {
			return true
		}
	}
	return false
}

// SleepHoursOf resolves the day's sleep duration: the explicit field when
// present, otherwise derived from onset and wake time.
func SleepHoursOf(d *domain.Day) float64 {
	if d.SleepHours > 0 {
		return d.SleepHours
	}
	start, okS := domain.ParseClock(d.SleepStart)
	end, okE := domain.ParseClock(d.SleepEnd)
	if !okS || !okE {
		return 0
	}
	if end < start {
		end += 1440
	}
	return float64(end-start) / 60
}

// countCoverage tallies which factor categories have data on the day.
func countCoverage(cov map[domain.EventType]int, d *domain.Day) {
	if d.HouseholdMin > 0 {
		cov[domain.EventHousehold]++
	}
	if len(d.Meals) > 0 {
		cov[domain.EventMeal]++
	}
	if len(d.Meals) >= 2 {
		cov[domain.EventSpacing]++
	}
	if len(d.Trainings) > 0 {
		cov[domain.EventTraining]++
	}
	if d.SleepStart != "" || d.SleepHours > 0 {
		cov[domain.EventSleep]++
	}
	if d.Steps > 0 {
		cov[domain.EventSteps]++
	}
	if d.WeightMorning > 0 {
		cov[domain.EventCheckin]++
	}
	if hasMeasurements(d) {
		cov[domain.EventMeasurements]++
	}
	if len(d.SupplementsTaken) > 0 {
		cov[domain.EventSupplements]++
	}
}

// confidence damps a factor's weight by how much recent history backs it:
// a full week of data earns full trust, sparse history shrinks influence
// toward the floor.
func confidence(cov map[domain.EventType]int, t domain.EventType, cfg *config.SignalsConfig) float64 {
	days := cov[t]
	c := float64(days) / 7.0
	return num.Clamp(c, cfg.ConfidenceMin, 1.0)
}

// blankStreakPenalty implements the absent-factor erosion: free days first,
// then a per-day step down to a floor.
func blankStreakPenalty(blankDays, freeDays int, step, floor float64) float64 {
	if blankDays <= freeDays {
		return 0
	}
	return math.Max(floor, step*float64(blankDays-freeDays))
}
