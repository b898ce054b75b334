// Package signals turns one day's raw record plus personalized baselines
// into a list of scored behavioral events.
package signals

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/nutrition"
)

// Extractor scores the behavioral factors of a single day.
type Extractor struct {
	cfg    *config.CascadeConfig
	scorer nutrition.MealQualityScorer
	index  nutrition.ProductIndex
}

// NewExtractor creates a signal extractor. scorer may be nil, in which case
// the documented heuristic default is used; index may be nil, in which case
// item-cached nutrition values apply.
func NewExtractor(cfg *config.CascadeConfig, scorer nutrition.MealQualityScorer, index nutrition.ProductIndex) *Extractor {
	if scorer == nil {
		scorer = nutrition.HeuristicScorer{}
	}
	return &Extractor{cfg: cfg, scorer: scorer, index: index}
}

// Input bundles one extraction request. History[0] is yesterday; nil
// entries are days without records.
type Input struct {
	Day     *domain.Day
	History []*domain.Day
	Profile domain.Profile
	Now     time.Time
}

// Extraction is the extractor's full output for one day.
type Extraction struct {
	Events        []domain.Event
	StreakPenalty float64 // absent-factor erosion, not tied to any event
	Synergy       float64
	Warnings      []string

	PostTraining  bool
	ConsumedRatio float64 // calories consumed / target, 0 when no target
	HarmfulNight  bool
	TrainingDay   bool
}

// DailyScore combines event weights, synergy and streak erosion into the
// single-day score.
func (e Extraction) DailyScore() float64 {
	score := e.Synergy + e.StreakPenalty
	for _, ev := range e.Events {
		score += ev.Weight
	}
	return score
}

// Extract runs every factor scorer and assembles the sorted event list.
// Missing fields are "no signal": skipped, never penalized beyond the
// explicit streak-break rules.
func (x *Extractor) Extract(in Input) Extraction {
	out := Extraction{}
	day := in.Day
	if day == nil {
		return out
	}

	sc := &x.cfg.Signals
	b := computeBaselines(in.History, sc)

	// Household activity: adaptive log2 ratio, or erosion when the habit
	// has gone quiet.
	if day.HouseholdMin > 0 {
		w := householdWeight(day.HouseholdMin, b.HouseholdMedianMin, &sc.Household) * confidence(b.Coverage, domain.EventHousehold, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventHousehold,
			Positive: w >= 0,
			Weight:   w,
			Label:    fmt.Sprintf("household activity %d min", day.HouseholdMin),
			SortKey:  599,
		})
	} else {
		out.StreakPenalty += blankStreakPenalty(b.HouseholdBlankDays, sc.Household.StreakFreeDays, sc.Household.StreakPenaltyStep, sc.Household.StreakPenaltyFloor)
	}

	// Meals.
	mealBedtime := b.OnsetOptimalMin
	meals := scoreMeals(day, in.Profile, mealBedtime, x.scorer, x.index, &sc.Meals)
	mealConf := confidence(b.Coverage, domain.EventMeal, sc)
	for i := range meals.events {
		meals.events[i].Weight *= mealConf
	}
	out.Events = append(out.Events, meals.events...)
	out.Warnings = append(out.Warnings, meals.warnings...)
	out.ConsumedRatio = meals.consumedRatio
	out.HarmfulNight = meals.harmfulNight

	// Trainings: diminishing returns across sessions, or erosion when the
	// habit has gone quiet.
	if len(day.Trainings) > 0 {
		out.TrainingDay = true
		conf := confidence(b.Coverage, domain.EventTraining, sc)
		for i, tr := range day.Trainings {
			w := TrainingWeight(tr, i, &sc.Training) * conf
			sortKey := 700
			if t, ok := domain.ParseClock(tr.Time); ok {
				sortKey = t
			}
			out.Events = append(out.Events, domain.Event{
				Type:     domain.EventTraining,
				Time:     tr.Time,
				Positive: w >= 0,
				Weight:   w,
				Label:    fmt.Sprintf("training %d min", tr.EffectiveDuration()),
				SortKey:  sortKey,
			})
		}
	} else {
		out.StreakPenalty += blankStreakPenalty(b.TrainingBlankDays, sc.Training.StreakFreeDays, sc.Training.StreakPenaltyStep, sc.Training.StreakPenaltyFloor)
	}

	// Sleep onset.
	sleepConf := confidence(b.Coverage, domain.EventSleep, sc)
	if onset, ok := domain.ParseClock(day.SleepStart); ok {
		norm := NormalizeOnset(onset)
		w, hardFloor := OnsetWeight(norm, b.OnsetOptimalMin, &sc.Sleep)
		w *= sleepConf
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventSleep,
			Time:     day.SleepStart,
			Positive: w >= 0 && !hardFloor,
			Weight:   w,
			Label:    "sleep onset " + day.SleepStart,
			SortKey:  1300,
			BreakReason: func() string {
				if hardFloor {
					return "very late bedtime"
				}
				return ""
			}(),
		})
	}

	// Sleep duration.
	if hours := SleepHoursOf(day); hours > 0 {
		w, hardFloor := DurationWeight(hours, b.SleepOptimalHours, b.PrevDayTrainingMin, &sc.Sleep)
		w *= sleepConf
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventSleep,
			Positive: w >= 0 && !hardFloor,
			Weight:   w,
			Label:    fmt.Sprintf("sleep %.1f h", hours),
			SortKey:  1301,
			BreakReason: func() string {
				if hardFloor {
					return "too little sleep"
				}
				return ""
			}(),
		})
	}

	// Steps.
	if day.Steps > 0 {
		goal := in.Profile.StepsGoal
		if goal <= 0 {
			goal = sc.Steps.DefaultGoal
		}
		w := StepsWeight(day.Steps, goal, &sc.Steps) * confidence(b.Coverage, domain.EventSteps, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventSteps,
			Positive: w >= 0,
			Weight:   w,
			Label:    stepsLabel(day.Steps, goal),
			SortKey:  1100,
		})
	}

	// Morning weight checkin.
	if day.WeightMorning > 0 {
		w := checkinWeight(b, &sc.Checkin) * confidence(b.Coverage, domain.EventCheckin, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventCheckin,
			Positive: w >= 0,
			Weight:   w,
			Label:    fmt.Sprintf("weight checkin %.1f kg", day.WeightMorning),
			SortKey:  540,
		})
	}

	// Body measurements.
	if w := measurementsWeight(day, b, &sc.Measure); w != 0 {
		w *= confidence(b.Coverage, domain.EventMeasurements, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventMeasurements,
			Positive: w >= 0,
			Weight:   w,
			Label:    "body measurements",
			SortKey:  545,
		})
	} else {
		out.StreakPenalty += measurementsStalePenalty(b, &sc.Measure)
	}

	// Supplements. Only the day's own data opens this factor; a plan on
	// the profile alone says nothing about what happened today.
	if taken := len(day.SupplementsTaken); taken > 0 || day.SupplementsPlanned > 0 {
		planned := day.SupplementsPlanned
		if planned == 0 {
			planned = in.Profile.PlannedSupplements
		}
		if planned == 0 {
			planned = taken
		}
		w := supplementsWeight(taken, planned, b, &sc.Supplements) * confidence(b.Coverage, domain.EventSupplements, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventSupplements,
			Positive: w >= 0,
			Weight:   w,
			Label:    fmt.Sprintf("supplements %d/%d", taken, planned),
			SortKey:  550,
		})
	}

	// Inter-meal spacing.
	if w, ok := spacingWeight(day, &sc.Spacing); ok {
		w *= confidence(b.Coverage, domain.EventSpacing, sc)
		out.Events = append(out.Events, domain.Event{
			Type:     domain.EventSpacing,
			Positive: w >= 0,
			Weight:   w,
			Label:    "meal spacing",
			SortKey:  1200,
		})
	}

	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].SortKey < out.Events[j].SortKey
	})

	out.Synergy = synergyBonus(day, out.Events, meals, &sc.Synergy)
	out.PostTraining = postTrainingWindow(day.Trainings, in.Now)

	log.Debug().
		Str("component", "cascade").
		Str("date", day.Date).
		Int("events", len(out.Events)).
		Float64("synergy", out.Synergy).
		Float64("streak_penalty", out.StreakPenalty).
		Float64("daily_score", out.DailyScore()).
		Msg("signals extracted")

	return out
}

// postTrainingWindow reports whether now falls within two hours after the
// day's last timed training.
func postTrainingWindow(trainings []domain.Training, now time.Time) bool {
	if len(trainings) == 0 || now.IsZero() {
		return false
	}
	last := trainings[len(trainings)-1]
	t, ok := domain.ParseClock(last.Time)
	if !ok {
		return false
	}
	nowMin := now.Hour()*60 + now.Minute()
	diff := nowMin - t
	return diff >= 0 && diff <= 120
}
