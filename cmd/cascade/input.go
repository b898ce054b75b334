package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// inputFile is the on-disk shape the score and backfill commands consume:
// the user profile plus a batch of raw day records.
type inputFile struct {
	Profile domain.Profile `json:"profile"`
	Days    []domain.Day   `json:"days"`
}

// loadInput reads the records file and keys the days by date.
func loadInput(path string) (domain.Profile, map[string]*domain.Day, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Profile{}, nil, fmt.Errorf("reading records file: %w", err)
	}
	var in inputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.Profile{}, nil, fmt.Errorf("parsing records file: %w", err)
	}

	records := make(map[string]*domain.Day, len(in.Days))
	for i := range in.Days {
		d := &in.Days[i]
		if d.Date == "" {
			return domain.Profile{}, nil, fmt.Errorf("day record %d has no date", i)
		}
		records[d.Date] = d
	}
	return in.Profile, records, nil
}

// loadConfig resolves the engine config and estimator calibration from the
// persistent flags.
func loadConfig(cmd *cobra.Command) (*config.CascadeConfig, config.EstimatorCalibration, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), config.DefaultEstimatorCalibration(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.EstimatorCalibration{}, err
	}
	calPath, _ := cmd.Flags().GetString("calibration")
	if calPath == "" {
		return cfg, config.DefaultEstimatorCalibration(), nil
	}
	cal, err := config.LoadEstimatorCalibration(calPath)
	if err != nil {
		return nil, config.EstimatorCalibration{}, err
	}
	return cfg, cal, nil
}

// printJSON writes v to stdout, indented.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
