package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/history"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

func newBackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Reconstruct missing contribution history",
		Long: `Runs the retroactive estimator over the backfill window and prints
the resulting date-to-contribution map. Days that already hold an
unflagged value are left untouched.`,
		RunE: runBackfill,
	}
	cmd.Flags().String("records", "", "JSON file with profile and day records (required)")
	cmd.Flags().String("date", "", "anchor date, defaults to today")
	cmd.Flags().String("calibration", "", "estimator calibration file (YAML)")
	cmd.MarkFlagRequired("records")
	return cmd
}

func runBackfill(cmd *cobra.Command, args []string) error {
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

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = domain.DateKey(time.Now())
	} else if _, perr := time.Parse(domain.DateLayout, date); perr != nil {
		return fmt.Errorf("invalid --date %q: %w", date, perr)
	}

	store := history.NewStore(cfg.History)
	est := history.NewEstimator(cfg, cal)
	filled := est.Backfill(store, date, records, profile)

	log.Info().
		Int("filled", filled).
		Int("total", store.Len()).
		Str("anchor", date).
		Msg("backfill complete")
	return printJSON(store.Entries())
}
