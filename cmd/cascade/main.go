package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "cascade"
	version = "v3.5.1"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Behavioral momentum scoring engine",
		Version: version,
		Long: `cascade turns daily health records (meals, training, sleep, steps,
checkins) into a bounded momentum score and a discrete state, with
history-backed decay, personalized ceiling and retroactive backfill.`,
	}

	rootCmd.PersistentFlags().String("config", "", "engine config file (YAML), defaults used when empty")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace|debug|info|warn|error")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newBackfillCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogging applies the persistent log flags before any command runs.
func setupLogging(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
