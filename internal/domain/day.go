package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the calendar-date key format used across the engine
// (history keys, day records, backfill windows).
const DateLayout = "2006-01-02"

// Day represents a single calendar day's raw record as captured by the
// surrounding application. The engine only reads it.
type Day struct {
	Date               string             `json:"date"`
	Meals              []Meal             `json:"meals,omitempty"`
	Trainings          []Training         `json:"trainings,omitempty"`
	SleepStart         string             `json:"sleep_start,omitempty"` // "HH:MM", onset
	SleepEnd           string             `json:"sleep_end,omitempty"`
	SleepHours         float64            `json:"sleep_hours,omitempty"`
	Steps              int                `json:"steps,omitempty"`
	HouseholdMin       int                `json:"household_min,omitempty"`
	WeightMorning      float64            `json:"weight_morning,omitempty"`
	Measurements       map[string]float64 `json:"measurements,omitempty"`
	SupplementsTaken   []string           `json:"supplements_taken,omitempty"`
	SupplementsPlanned int                `json:"supplements_planned,omitempty"`
	Water              float64            `json:"water,omitempty"`
}

// Meal is one eating occasion.
type Meal struct {
	Time  string     `json:"time,omitempty"` // "HH:MM"
	Items []MealItem `json:"items,omitempty"`
}

// MealItem references a product plus the consumed amount. Kcal100 is the
// cached per-100g energy carried on the item so scoring works even when the
// product index is unavailable.
type MealItem struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Grams     float64 `json:"grams,omitempty"`
	Kcal100   float64 `json:"kcal100,omitempty"`
}

// Training is one training session. Duration wins when set; otherwise the
// sum of intensity-zone minutes, otherwise a per-type default.
type Training struct {
	Time        string `json:"time,omitempty"` // "HH:MM"
	Duration    int    `json:"duration,omitempty"`
	ZoneMinutes []int  `json:"zone_minutes,omitempty"`
	Type        string `json:"type,omitempty"`
}

// GoalMode selects calorie-penalty thresholds in the contribution normalizer.
type GoalMode string

const (
	GoalDeficit     GoalMode = "deficit"
	GoalMaintenance GoalMode = "maintenance"
	GoalBulk        GoalMode = "bulk"
)

// Profile carries the user's goal parameters and personal norms.
type Profile struct {
	StepsGoal          int      `json:"steps_goal" yaml:"steps_goal"`
	WaterNorm          float64  `json:"water_norm" yaml:"water_norm"`
	TargetKcal         float64  `json:"target_kcal" yaml:"target_kcal"`
	GoalMode           GoalMode `json:"goal_mode" yaml:"goal_mode"`
	PlannedSupplements int      `json:"planned_supplements" yaml:"planned_supplements"`
}

// HasAnyData reports whether the day carries at least one scoreable signal.
func (d *Day) HasAnyData() bool {
	if d == nil {
		return false
	}
	if len(d.Meals) > 0 || len(d.Trainings) > 0 || d.Steps > 0 || d.HouseholdMin > 0 {
		return true
	}
	if d.WeightMorning > 0 || d.SleepStart != "" || d.SleepHours > 0 {
		return true
	}
	if len(d.SupplementsTaken) > 0 {
		return true
	}
	for _, v := range d.Measurements {
		if v > 0 {
			return true
		}
	}
	return false
}

// EffectiveDuration resolves a session's load minutes.
func (t Training) EffectiveDuration() int {
	if t.Duration > 0 {
		return t.Duration
	}
	sum := 0
	for _, z := range t.ZoneMinutes {
		sum += z
	}
	if sum > 0 {
		return sum
	}
	switch t.Type {
	case "cardio":
		return 40
	case "strength":
		return 50
	case "hiit":
		return 30
	case "yoga":
		return 60
	case "stretching":
		return 30
	}
	return 40
}

var timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)

// ParseClock converts "HH:MM" to minutes after midnight. Returns ok=false
// for empty or malformed values so callers can treat them as "no signal".
func ParseClock(s string) (int, bool) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 29 || min > 59 {
		return 0, false
	}
	return h*60 + min, true
}

// DateKey formats a time as a history key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ShiftDate returns the date key n days before the given key. Malformed
// input yields an error rather than a silent wrong window.
func ShiftDate(key string, daysBack int) (string, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return "", fmt.Errorf("bad date key %q: %w", key, err)
	}
	return t.AddDate(0, 0, -daysBack).Format(DateLayout), nil
}
