// Package calibration derives the personalized momentum ceiling from recent
// contribution history and behavioral breadth.
package calibration

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Category identifies one behavioral factor family counted toward diversity.
type Category int

const (
	CatHousehold Category = iota
	CatSleepOnset
	CatSleepDuration
	CatSteps
	CatCheckin
	CatMeasurements
	CatSupplements
	CatSpacing
	CatTraining
	categoryCount
)

// Calibrator computes the ceiling. Stateless; recomputed on every call since
// the inputs are bounded by the history window.
type Calibrator struct {
	cfg *config.CeilingConfig
}

func NewCalibrator(cfg *config.CeilingConfig) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// Breakdown exposes the ceiling components for diagnostics.
type Breakdown struct {
	Consistency float64 `json:"consistency"`
	Diversity   float64 `json:"diversity"`
	DataDepth   float64 `json:"data_depth"`
	Ceiling     float64 `json:"ceiling"`
}

// Compute returns the personalized ceiling in (0, 1].
//
// recentDCS is the contribution history restricted to the ceiling window;
// days holds the raw records for the same window (nil entries allowed).
func (c *Calibrator) Compute(recentDCS []float64, days []*domain.Day) Breakdown {
	b := Breakdown{
		Consistency: c.consistency(recentDCS),
		Diversity:   c.diversity(days),
		DataDepth:   c.dataDepth(days),
	}
	b.Ceiling = math.Min(1.0, c.cfg.Base*b.Consistency*b.Diversity+b.DataDepth)

	log.Debug().
		Str("component", "ceiling").
		Float64("consistency", b.Consistency).
		Float64("diversity", b.Diversity).
		Float64("depth", b.DataDepth).
		Float64("ceiling", b.Ceiling).
		Msg("ceiling calibrated")
	return b
}

// consistency rewards a stable contribution stream: low relative deviation
// over at least ConsistencyMinN samples lifts the multiplier up to the cap.
func (c *Calibrator) consistency(recentDCS []float64) float64 {
	if len(recentDCS) < c.cfg.ConsistencyMinN {
		return 1.0
	}
	mean := num.Mean(recentDCS)
	if mean <= 0 {
		return 1.0
	}
	rel := 1.0 - num.Stdev(recentDCS)/mean
	return 1.0 + num.Clamp(rel*c.cfg.ConsistencyCap, 0, c.cfg.ConsistencyCap)
}

// diversity counts factor categories with data on at least CategoryMinDays of
// the window. Breadth of tracked behavior widens the attainable ceiling.
func (c *Calibrator) diversity(days []*domain.Day) float64 {
	var counts [categoryCount]int
	for _, d := range days {
		if d == nil {
			continue
		}
		for _, cat := range dayCategories(d) {
			counts[cat]++
		}
	}
	activated := 0
	for _, n := range counts {
		if n >= c.cfg.CategoryMinDays {
			activated++
		}
	}
	return 1.0 + float64(activated)/float64(c.cfg.CategoryCount)*c.cfg.DiversityPerCat
}

// dataDepth grants a small additive bonus per full week of tracked days,
// capped at DepthMaxSteps weeks.
func (c *Calibrator) dataDepth(days []*domain.Day) float64 {
	withData := 0
	for _, d := range days {
		if d != nil && d.HasAnyData() {
			withData++
		}
	}
	steps := withData / c.cfg.DepthStepDays
	if steps > c.cfg.DepthMaxSteps {
		steps = c.cfg.DepthMaxSteps
	}
	return c.cfg.DepthStep * float64(steps)
}

// dayCategories lists the factor categories a single day has data for.
func dayCategories(d *domain.Day) []Category {
	cats := make([]Category, 0, int(categoryCount))
	if d.HouseholdMin > 0 {
		cats = append(cats, CatHousehold)
	}
	if d.SleepStart != "" {
		cats = append(cats, CatSleepOnset)
	}
	if d.SleepHours > 0 || (d.SleepStart != "" && d.SleepEnd != "") {
		cats = append(cats, CatSleepDuration)
	}
	if d.Steps > 0 {
		cats = append(cats, CatSteps)
	}
	if d.WeightMorning > 0 {
		cats = append(cats, CatCheckin)
	}
	if len(d.Measurements) > 0 {
		cats = append(cats, CatMeasurements)
	}
	if len(d.SupplementsTaken) > 0 {
		cats = append(cats, CatSupplements)
	}
	if len(d.Meals) >= 2 {
		cats = append(cats, CatSpacing)
	}
	if len(d.Trainings) > 0 {
		cats = append(cats, CatTraining)
	}
	return cats
}
