package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOk bool
	}{
		{"08:00", 480, true},
		{"23:59", 1439, true},
		{"0:05", 5, true},
		{"00:00", 0, true},
		{"25:00", 1500, true}, // extended clock for after-midnight onsets
		{"30:00", 0, false},
		{"08:60", 0, false},
		{"", 0, false},
		{"noon", 0, false},
		{"8", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClock(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveDuration(t *testing.T) {
	tests := []struct {
		name string
		tr   Training
		want int
	}{
		{"explicit duration wins", Training{Duration: 75, Type: "cardio", ZoneMinutes: []int{10, 10}}, 75},
		{"zone minutes sum", Training{ZoneMinutes: []int{10, 20, 15}}, 45},
		{"cardio default", Training{Type: "cardio"}, 40},
		{"strength default", Training{Type: "strength"}, 50},
		{"hiit default", Training{Type: "hiit"}, 30},
		{"yoga default", Training{Type: "yoga"}, 60},
		{"unknown type default", Training{Type: "curling"}, 40},
		{"empty session default", Training{}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.EffectiveDuration())
		})
	}
}

func TestShiftDate(t *testing.T) {
	got, err := ShiftDate("2025-06-15", 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-14", got)

	got, err = ShiftDate("2025-06-15", 30)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-16", got)

	got, err = ShiftDate("2025-01-01", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", got, "crosses year boundaries")

	_, err = ShiftDate("garbage", 1)
	assert.Error(t, err)
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-15", DateKey(ts))
}

func TestHasAnyData(t *testing.T) {
	tests := []struct {
		name string
		day  *Day
		want bool
	}{
		{"nil day", nil, false},
		{"empty day", &Day{Date: "2025-06-15"}, false},
		{"meals", &Day{Meals: []Meal{{}}}, true},
		{"steps", &Day{Steps: 1}, true},
		{"weight", &Day{WeightMorning: 80}, true},
		{"sleep onset only", &Day{SleepStart: "23:00"}, true},
		{"supplements", &Day{SupplementsTaken: []string{"d3"}}, true},
		{"zeroed measurements", &Day{Measurements: map[string]float64{"waist": 0}}, false},
		{"filled measurements", &Day{Measurements: map[string]float64{"waist": 80}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.day.HasAnyData())
		})
	}
}
