package config

import (
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

// MealBand maps a time-of-day band to an approximate meal weight, used by
// the retroactive estimator in place of the full quality lookup.
type MealBand struct {
	Until  string  `yaml:"until"` // band covers times before this clock value
	Weight float64 `yaml:"weight"`
}

// EstimatorCalibration holds the hand-tuned constants of the retroactive
// estimator. These approximate the full pipeline's output on sampled days;
// treat them as defaults to validate empirically, not exact values.
type EstimatorCalibration struct {
	MealBands       []MealBand `yaml:"meal_bands"`
	NightMealWeight float64    `yaml:"night_meal_weight"`
	LateMealWeight  float64    `yaml:"late_meal_weight"`

	HouseholdFullMin   float64 `yaml:"household_full_min"` // minutes for full credit
	CheckinWeight      float64 `yaml:"checkin_weight"`
	SupplementsFull    float64 `yaml:"supplements_full"`
	MeasurementsWeight float64 `yaml:"measurements_weight"`

	// Meal-gap proxy for the insulin-spacing factor.
	GapGreatMin    int     `yaml:"gap_great_min"`
	GapGreatBonus  float64 `yaml:"gap_great_bonus"`
	GapGoodMin     int     `yaml:"gap_good_min"`
	GapGoodBonus   float64 `yaml:"gap_good_bonus"`
	GapOkMin       int     `yaml:"gap_ok_min"`
	GapOkBonus     float64 `yaml:"gap_ok_bonus"`

	// Positive-factor-count synergy proxy.
	SynergyPerFactor float64 `yaml:"synergy_per_factor"`
	SynergyFreeCount int     `yaml:"synergy_free_count"`
	SynergyCap       float64 `yaml:"synergy_cap"`
}

// DefaultEstimatorCalibration returns the shipped approximation constants.
func DefaultEstimatorCalibration() EstimatorCalibration {
	return EstimatorCalibration{
		MealBands: []MealBand{
			{Until: "11:00", Weight: 1.0},
			{Until: "15:00", Weight: 0.8},
			{Until: "19:00", Weight: 0.6},
			{Until: "23:00", Weight: 0.3},
		},
		NightMealWeight:    -1.0,
		LateMealWeight:     -0.5,
		HouseholdFullMin:   60,
		CheckinWeight:      0.5,
		SupplementsFull:    0.5,
		MeasurementsWeight: 1.0,
		GapGreatMin:        240,
		GapGreatBonus:      1.0,
		GapGoodMin:         180,
		GapGoodBonus:       0.5,
		GapOkMin:           120,
		GapOkBonus:         0.2,
		SynergyPerFactor:   0.25,
		SynergyFreeCount:   2,
		SynergyCap:         1.3,
	}
}

// LoadEstimatorCalibration reads a tuning file and overlays it on defaults.
func LoadEstimatorCalibration(path string) (EstimatorCalibration, error) {
	cal := DefaultEstimatorCalibration()
	data, err := os.ReadFile(path)
	if err != nil {
		return cal, fmt.Errorf("failed to read estimator calibration: %w", err)
	}
	if err := yamlv3.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("failed to parse estimator calibration YAML: %w", err)
	}
	return cal, nil
}
