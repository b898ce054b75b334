package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"profile": {"target_kcal": 2000, "goal_mode": "deficit", "steps_goal": 8000},
		"days": [
			{"date": "2025-06-14", "steps": 7000},
			{"date": "2025-06-15", "steps": 9000, "weight_morning": 82.0}
		]
	}`), 0o644))

	profile, records, err := loadInput(path)
	require.NoError(t, err)

	assert.InDelta(t, 2000, profile.TargetKcal, 0.001)
	assert.Equal(t, 8000, profile.StepsGoal)
	require.Len(t, records, 2)
	assert.Equal(t, 9000, records["2025-06-15"].Steps)
	assert.InDelta(t, 82.0, records["2025-06-15"].WeightMorning, 0.001)
}

func TestLoadInputRejectsUndatedDays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"days": [{"steps": 7000}]}`), 0o644))

	_, _, err := loadInput(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no date")
}

func TestLoadInputMissingFile(t *testing.T) {
	_, _, err := loadInput(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
