package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/history"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one day and print the full result",
		Long: `Runs the full pipeline for a single date: signal extraction, chain
walk, contribution, backfill, ceiling, momentum and state. Reads the day
plus its surrounding raw records from the records file.`,
		RunE: runScore,
	}
	cmd.Flags().String("records", "", "JSON file with profile and day records (required)")
	cmd.Flags().String("date", "", "date to score, defaults to today")
	cmd.Flags().String("calibration", "", "estimator calibration file (YAML)")
	cmd.MarkFlagRequired("records")
	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	cfg, cal, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	recordsPath, _ := cmd.Flags().GetString("records")
	profile, records, err := loadInput(recordsPath)
	if err != nil {
		return err
	}

	now := time.Now()
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = domain.DateKey(now)
	} else if parsed, perr := time.Parse(domain.DateLayout, date); perr != nil {
		return fmt.Errorf("invalid --date %q: %w", date, perr)
	} else {
		// Anchor "now" at end of day so post-training windows resolve.
		now = parsed.Add(23*time.Hour + 59*time.Minute)
	}

	engine := cascade.NewEngine(cfg, cal, history.NewStore(cfg.History), nil, nil)
	engine.MarkHistoryReady() // one-shot run, nothing to wait for

	res, err := engine.Compute(cascade.ComputeInput{
		Day:     records[date],
		Records: records,
		Profile: profile,
		Now:     now,
	})
	if err != nil {
		return err
	}
	return printJSON(res)
}
