package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kinderlystv-png/heys-cascade/internal/api"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/history"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/metrics"
	"github.com/kinderlystv-png/heys-cascade/internal/nutrition"
	"github.com/kinderlystv-png/heys-cascade/internal/persistence"
	"github.com/kinderlystv-png/heys-cascade/internal/persistence/postgres"
	rediscache "github.com/kinderlystv-png/heys-cascade/internal/persistence/redis"
)

const (
	dbTimeout    = 5 * time.Second
	snapshotTTL  = 48 * time.Hour
	snapshotUser = "default"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with live broadcasts",
		Long: `Serves the engine over HTTP: POST /v1/day upserts a record and
recomputes, GET /v1/momentum reads the latest result, GET /v1/ws streams
results live, plus /health and /metrics. History persists to PostgreSQL
and the hot snapshot to Redis when configured.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", ":8090", "listen address")
	cmd.Flags().String("calibration", "", "estimator calibration file (YAML)")
	cmd.Flags().String("postgres-dsn", "", "PostgreSQL DSN for durable history (optional)")
	cmd.Flags().String("redis-url", "", "Redis URL for the snapshot cache (optional)")
	cmd.Flags().String("nutrition-url", "", "remote product index base URL (optional)")
	cmd.Flags().Float64("target-kcal", 2000, "daily calorie target")
	cmd.Flags().String("goal", "maintenance", "goal mode: deficit|maintenance|bulk")
	cmd.Flags().Int("steps-goal", 8000, "daily steps goal")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	cfg, cal, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	profile := profileFromFlags(cmd.Flags())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, repo, snap, err := buildStorage(ctx, cmd.Flags(), cfg)
	if err != nil {
		return err
	}

	var index nutrition.ProductIndex
	if base, _ := cmd.Flags().GetString("nutrition-url"); base != "" {
		index = nutrition.NewRemoteIndex(nutrition.DefaultRemoteIndexConfig(base))
	}

	engine := cascade.NewEngine(cfg, cal, store, nil, index)
	reg := metrics.NewRegistry()
	hub := api.NewHub()
	engine.Subscribe(hub)
	engine.Subscribe(reg)
	if repo != nil || snap != nil {
		engine.Subscribe(newPersistPublisher(repo, snap, cfg.History.SchemaVersion))
	}

	// History came from durable storage (or there is none); either way the
	// engine can publish immediately. The timeout guard still covers the
	// case of a slow external sync signal wired in later.
	engine.StartGuard()
	engine.MarkHistoryReady()

	addr, _ := cmd.Flags().GetString("addr")
	srv := api.NewServer(addr, engine, hub, reg, profile)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func profileFromFlags(fs *pflag.FlagSet) domain.Profile {
	target, _ := fs.GetFloat64("target-kcal")
	goal, _ := fs.GetString("goal")
	steps, _ := fs.GetInt("steps-goal")
	return domain.Profile{
		TargetKcal: target,
		GoalMode:   domain.GoalMode(goal),
		StepsGoal:  steps,
	}
}

// buildStorage opens the configured backends and restores the history store
// from the freshest available source: Redis snapshot first, then PostgreSQL.
func buildStorage(ctx context.Context, fs *pflag.FlagSet, cfg *config.CascadeConfig) (*history.Store, persistence.HistoryRepo, persistence.SnapshotCache, error) {
	var repo persistence.HistoryRepo
	var snap persistence.SnapshotCache

	if dsn, _ := fs.GetString("postgres-dsn"); dsn != "" {
		db, err := postgres.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		repo = postgres.NewHistoryRepo(db, dbTimeout)
		log.Info().Str("component", "storage").Msg("postgres history enabled")
	}
	if url, _ := fs.GetString("redis-url"); url != "" {
		client, err := rediscache.Connect(ctx, url)
		if err != nil {
			return nil, nil, nil, err
		}
		snap = rediscache.NewSnapshotCache(client)
		log.Info().Str("component", "storage").Msg("redis snapshot cache enabled")
	}

	if snap != nil {
		version, entries, err := snap.LoadHistory(ctx, snapshotUser)
		if err == nil && len(entries) > 0 {
			store := history.Restore(history.Snapshot{Version: version, Entries: entries}, cfg.History)
			if store.Len() > 0 {
				log.Info().Int("entries", store.Len()).Msg("history restored from redis")
				return store, repo, snap, nil
			}
		}
	}

	if repo != nil {
		cutoff, err := domain.ShiftDate(domain.DateKey(time.Now()), cfg.History.RetentionDays)
		if err != nil {
			return nil, nil, nil, err
		}
		rows, err := repo.Load(ctx, cfg.History.SchemaVersion, cutoff)
		if err != nil {
			return nil, nil, nil, err
		}
		if purged, err := repo.PurgeVersion(ctx, cfg.History.SchemaVersion); err == nil && purged > 0 {
			log.Info().Int64("purged", purged).Msg("stale schema versions purged")
		}
		store := history.Restore(snapshotFromRows(rows, cfg.History.SchemaVersion), cfg.History)
		log.Info().Int("entries", store.Len()).Msg("history restored from postgres")
		return store, repo, snap, nil
	}

	return history.NewStore(cfg.History), repo, snap, nil
}

// snapshotFromRows converts persisted history rows into the store's
// snapshot form. Flagged rows carry over as dates awaiting re-estimation.
func snapshotFromRows(rows []persistence.HistoryEntry, version string) history.Snapshot {
	snap := history.Snapshot{
		Version: version,
		Entries: make(map[string]float64, len(rows)),
	}
	for _, r := range rows {
		snap.Entries[r.Date] = r.DCS
		if r.Flagged {
			snap.Flagged = append(snap.Flagged, r.Date)
		}
	}
	return snap
}

// persistPublisher mirrors every published result into durable storage.
type persistPublisher struct {
	repo    persistence.HistoryRepo
	snap    persistence.SnapshotCache
	version string
}

func newPersistPublisher(repo persistence.HistoryRepo, snap persistence.SnapshotCache, version string) *persistPublisher {
	return &persistPublisher{repo: repo, snap: snap, version: version}
}

func (p *persistPublisher) Publish(res *domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if p.repo != nil {
		entries := make([]persistence.HistoryEntry, 0, len(res.DCSHistory))
		for date, dcs := range res.DCSHistory {
			entries = append(entries, persistence.HistoryEntry{
				Date:          date,
				DCS:           dcs,
				SchemaVersion: p.version,
			})
		}
		if err := p.repo.UpsertBatch(ctx, entries); err != nil {
			log.Warn().Err(err).Msg("history persist failed")
		}
	}
	if p.snap != nil {
		if err := p.snap.StoreResult(ctx, snapshotUser, res, snapshotTTL); err != nil {
			log.Warn().Err(err).Msg("result snapshot failed")
		}
		if err := p.snap.StoreHistory(ctx, snapshotUser, p.version, res.DCSHistory, snapshotTTL); err != nil {
			log.Warn().Err(err).Msg("history snapshot failed")
		}
	}
}
