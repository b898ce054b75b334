package history

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/signals"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Estimator reconstructs approximate daily contributions for historical
// days lacking a clean computed record. It runs deliberately simplified
// proxies of the live scorers: time-banded meal weights instead of the full
// quality lookup, a positive-factor-count synergy proxy, and a chronotype
// baseline rebuilt from the surrounding window. Direction matters more than
// precision here; the goal is a trend that does not lie.
type Estimator struct {
	cfg *config.CascadeConfig
	cal config.EstimatorCalibration
}

// NewEstimator creates a retroactive estimator.
func NewEstimator(cfg *config.CascadeConfig, cal config.EstimatorCalibration) *Estimator {
	return &Estimator{cfg: cfg, cal: cal}
}

// Backfill estimates every date in the backfill window that is missing
// from the store or flagged as produced by a known-incorrect path, and
// upserts the results. records maps date keys to raw day records. Returns
// the number of dates filled. Deterministic for identical inputs.
func (e *Estimator) Backfill(store *Store, today string, records map[string]*domain.Day, profile domain.Profile) int {
	filled := 0
	for back := 1; back <= e.cfg.History.BackfillDays; back++ {
		date, err := domain.ShiftDate(today, back)
		if err != nil {
			break
		}
		if _, ok := store.Get(date); ok && !store.Flagged(date) {
			continue
		}
		day := records[date]
		if day == nil || !day.HasAnyData() {
			if store.Flagged(date) {
				// A flagged value whose raw record is gone can never be
				// re-estimated. Keeping the known-wrong number would poison
				// the rolling window, so drop it.
				store.Delete(date)
			}
			continue
		}
		dcs := e.EstimateDay(date, day, records, profile)
		store.Upsert(date, dcs)
		filled++
	}
	if filled > 0 {
		log.Info().
			Str("component", "cascade").
			Int("filled", filled).
			Str("today", today).
			Msg("history backfilled")
	}
	return filled
}

// EstimateDay approximates the DCS for one historical day, normalized and
// clamped exactly like the live pipeline.
func (e *Estimator) EstimateDay(date string, day *domain.Day, records map[string]*domain.Day, profile domain.Profile) float64 {
	score := 0.0
	positives := 0
	bump := func(w float64) {
		score += w
		if w > 0 {
			positives++
		}
	}

	// Meals: time bands stand in for the quality lookup.
	mealSum := 0.0
	for _, meal := range day.Meals {
		mealSum += e.mealBandWeight(meal)
	}
	bump(mealSum)

	// Trainings: the live sqrt curve with session discounts.
	trainSum := 0.0
	for i, tr := range day.Trainings {
		trainSum += signals.TrainingWeight(tr, i, &e.cfg.Signals.Training)
	}
	bump(trainSum)

	// Sleep: live formulas against a chronotype baseline reconstructed
	// from the surrounding window.
	optimum := e.windowChronotype(date, records)
	if onset, ok := domain.ParseClock(day.SleepStart); ok {
		w, _ := signals.OnsetWeight(signals.NormalizeOnset(onset), optimum, &e.cfg.Signals.Sleep)
		bump(w)
	}
	if hours := signals.SleepHoursOf(day); hours > 0 {
		prevTrain := 0
		if prev, err := domain.ShiftDate(date, 1); err == nil {
			if pd := records[prev]; pd != nil {
				for _, tr := range pd.Trainings {
					prevTrain += tr.EffectiveDuration()
				}
			}
		}
		w, _ := signals.DurationWeight(hours, e.cfg.Signals.Sleep.DefaultOptimalHours, prevTrain, &e.cfg.Signals.Sleep)
		bump(w)
	}

	// Steps: same tanh curve.
	if day.Steps > 0 {
		goal := profile.StepsGoal
		if goal <= 0 {
			goal = e.cfg.Signals.Steps.DefaultGoal
		}
		bump(signals.StepsWeight(day.Steps, goal, &e.cfg.Signals.Steps))
	}

	// Proportional proxies for the remaining factors.
	if day.HouseholdMin > 0 && e.cal.HouseholdFullMin > 0 {
		bump(num.Clamp(float64(day.HouseholdMin)/e.cal.HouseholdFullMin, 0, 1))
	}
	if day.WeightMorning > 0 {
		bump(e.cal.CheckinWeight)
	}
	planned := day.SupplementsPlanned
	if planned == 0 {
		planned = profile.PlannedSupplements
	}
	if planned > 0 && len(day.SupplementsTaken) > 0 {
		ratio := num.Clamp(float64(len(day.SupplementsTaken))/float64(planned), 0, 1)
		bump(e.cal.SupplementsFull * ratio)
	}
	if hasMeasurementData(day) {
		bump(e.cal.MeasurementsWeight)
	}

	// Meal-gap proxy for insulin spacing.
	bump(e.gapProxy(day))

	// Synergy proxy: positive factor count beyond the free allowance.
	extra := positives - e.cal.SynergyFreeCount
	if extra > 0 {
		score += num.Clamp(e.cal.SynergyPerFactor*float64(extra), 0, e.cal.SynergyCap)
	}

	return num.Clamp(score/e.cfg.MomentumTarget, e.cfg.Contribution.Floor, e.cfg.Contribution.Cap)
}

func (e *Estimator) mealBandWeight(meal domain.Meal) float64 {
	t, ok := domain.ParseClock(meal.Time)
	if !ok {
		// Untimed meals take the mid band.
		if len(e.cal.MealBands) > 0 {
			return e.cal.MealBands[len(e.cal.MealBands)/2].Weight
		}
		return 0.5
	}
	if t < 360 {
		return e.cal.NightMealWeight
	}
	for _, band := range e.cal.MealBands {
		if until, ok := domain.ParseClock(band.Until); ok && t < until {
			return band.Weight
		}
	}
	return e.cal.LateMealWeight
}

// windowChronotype rebuilds the optimal bedtime from onsets in the 15-day
// window centered on the date.
func (e *Estimator) windowChronotype(date string, records map[string]*domain.Day) int {
	var onsets []float64
	for off := -7; off <= 7; off++ {
		d, err := domain.ShiftDate(date, off)
		if err != nil {
			continue
		}
		day := records[d]
		if day == nil {
			continue
		}
		if mins, ok := domain.ParseClock(day.SleepStart); ok {
			onsets = append(onsets, float64(signals.NormalizeOnset(mins)))
		}
	}
	return signals.ChronotypeOptimum(onsets, &e.cfg.Signals.Sleep)
}

func (e *Estimator) gapProxy(day *domain.Day) float64 {
	var times []int
	for _, m := range day.Meals {
		if t, ok := domain.ParseClock(m.Time); ok {
			times = append(times, t)
		}
	}
	if len(times) < 2 {
		return 0
	}
	sort.Ints(times)
	total := 0
	for i := 1; i < len(times); i++ {
		total += times[i] - times[i-1]
	}
	avgGap := total / (len(times) - 1)
	switch {
	case avgGap >= e.cal.GapGreatMin:
		return e.cal.GapGreatBonus
	case avgGap >= e.cal.GapGoodMin:
		return e.cal.GapGoodBonus
	case avgGap >= e.cal.GapOkMin:
		return e.cal.GapOkBonus
	}
	return 0
}

func hasMeasurementData(d *domain.Day) bool {
	for _, v := range d.Measurements {
		if v > 0 {
			return true
		}
	}
	return false
}
