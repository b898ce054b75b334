// Package cascade orchestrates the full momentum pipeline: signal
// extraction, chain walk, contribution normalization, history upkeep,
// ceiling calibration, rolling aggregation and state classification, behind
// a per-day computation cache and a history readiness guard.
package cascade

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/calibration"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/chain"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/contribution"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/history"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/momentum"
	"github.com/kinderlystv-png/heys-cascade/internal/cascade/signals"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
	"github.com/kinderlystv-png/heys-cascade/internal/nutrition"
)

// baselineDays is how far back the extractor's personalization looks.
const baselineDays = 14

// Publisher receives every published result, e.g. a websocket hub or a
// metrics recorder.
type Publisher interface {
	Publish(res *domain.Result)
}

// Engine runs the pipeline. One engine serves one user context; Compute
// calls for the same engine are serialized.
type Engine struct {
	cfg        *config.CascadeConfig
	extractor  *signals.Extractor
	calibrator *calibration.Calibrator
	aggregator *momentum.Aggregator
	estimator  *history.Estimator
	store      *history.Store

	mu         sync.Mutex
	cache      resultCache
	guard      readyGuard
	version    uint64
	publishers []Publisher
}

// NewEngine wires the pipeline stages. scorer and index may be nil, falling
// back to the heuristic quality scorer and item-cached nutrition values.
func NewEngine(cfg *config.CascadeConfig, cal config.EstimatorCalibration, store *history.Store, scorer nutrition.MealQualityScorer, index nutrition.ProductIndex) *Engine {
	return &Engine{
		cfg:        cfg,
		extractor:  signals.NewExtractor(cfg, scorer, index),
		calibrator: calibration.NewCalibrator(&cfg.Ceiling),
		aggregator: momentum.NewAggregator(&cfg.Momentum),
		estimator:  history.NewEstimator(cfg, cal),
		store:      store,
	}
}

// Subscribe registers a publisher for live result broadcasts.
func (e *Engine) Subscribe(p Publisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publishers = append(e.publishers, p)
}

// StartGuard arms the readiness fallback timer.
func (e *Engine) StartGuard() {
	e.guard.Arm(time.Duration(e.cfg.Guard.ReadyTimeoutSec) * time.Second)
}

// MarkHistoryReady records the batch-sync-done signal and lifts the guard.
func (e *Engine) MarkHistoryReady() {
	e.guard.MarkReady()
}

// Ready reports whether results are currently publishable.
func (e *Engine) Ready() bool {
	return e.guard.Ready()
}

// Invalidate drops the memoized result and bumps the signature version.
// Callers are external writers: batch sync, nutrient recompute, client
// switch.
func (e *Engine) Invalidate(reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.version++
	e.cache.clear()
	log.Debug().
		Str("component", "engine").
		Str("reason", reason).
		Uint64("version", e.version).
		Msg("computation cache invalidated")
}

// History exposes the engine's history store.
func (e *Engine) History() *history.Store {
	return e.store
}

// ComputeInput bundles one recomputation trigger.
type ComputeInput struct {
	Day     *domain.Day            // today's record, may be nil
	Records map[string]*domain.Day // raw records by date key, today included
	Profile domain.Profile
	Now     time.Time
}

// Compute runs the pipeline once. Identical input with no invalidation in
// between returns the memoized result without recomputation or history
// mutation.
func (e *Engine) Compute(in ComputeInput) (*domain.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	date := domain.DateKey(in.Now)
	if in.Day != nil && in.Day.Date != "" {
		date = in.Day.Date
	}

	sig := inputSignature(in.Day, in.Profile, e.version)
	if cached, ok := e.cache.get(date, sig); ok {
		log.Debug().Str("component", "engine").Str("date", date).Msg("cache hit")
		return cached, nil
	}

	prior, err := e.priorWindow(date, in.Records, baselineDays)
	if err != nil {
		return nil, err
	}
	ext := e.extractor.Extract(signals.Input{
		Day:     in.Day,
		History: prior,
		Profile: in.Profile,
		Now:     in.Now,
	})
	chainRes := chain.Walk(ext.Events, &e.cfg.Chain)
	score := ext.DailyScore()

	dcs := contribution.Normalize(score, e.cfg.MomentumTarget, contribution.DayFacts{
		ConsumedRatio: ext.ConsumedRatio,
		HarmfulNight:  ext.HarmfulNight,
		TrainingDay:   ext.TrainingDay,
		GoalMode:      in.Profile.GoalMode,
	}, &e.cfg.Contribution)

	// History mutation happens even under the guard: a later batch sync
	// restore replaces the store wholesale, so a pre-sync value cannot leak.
	// A trigger with no day data is a pure read, though; writing its zero
	// would freeze an untracked day into the record.
	if in.Day.HasAnyData() {
		e.store.Upsert(date, dcs)
		e.store.Prune(date)
		e.estimator.Backfill(e.store, date, in.Records, in.Profile)
	}

	ceil, err := e.ceiling(date, in.Records)
	if err != nil {
		return nil, err
	}
	rolling, err := e.aggregator.Compute(date, dcs, ceil.Ceiling, e.store.Get)
	if err != nil {
		return nil, err
	}

	res := &domain.Result{
		Date:               date,
		Events:             ext.Events,
		ChainLength:        chainRes.Length,
		MaxChainToday:      chainRes.MaxToday,
		Score:              score,
		Breaks:             chainRes.Breaks,
		Recovering:         e.recovering(date, dcs),
		State:              momentum.Classify(&e.cfg.Momentum, rolling.CRS, len(ext.Events)),
		CRS:                rolling.CRS,
		CRSBase:            rolling.Base,
		TodayBoost:         rolling.TodayBoost,
		Ceiling:            ceil.Ceiling,
		DailyContribution:  dcs,
		CRSTrend:           rolling.Trend,
		DaysAtPeak:         rolling.DaysAtPeak,
		DCSHistory:         e.store.Entries(),
		PostTrainingWindow: ext.PostTraining,
		NextStepHint:       nextStepHint(in.Day, ext),
		Warnings:           ext.Warnings,
	}

	if e.guard.Ready() {
		e.cache.put(date, sig, res)
		for _, p := range e.publishers {
			p.Publish(res)
		}
	}

	log.Debug().
		Str("component", "engine").
		Str("date", date).
		Float64("score", score).
		Float64("dcs", dcs).
		Float64("crs", res.CRS).
		Str("state", string(res.State)).
		Msg("pipeline computed")
	return res, nil
}

// priorWindow assembles the prior-day slice the extractor expects:
// index 0 is yesterday.
func (e *Engine) priorWindow(date string, records map[string]*domain.Day, n int) ([]*domain.Day, error) {
	out := make([]*domain.Day, n)
	for i := 1; i <= n; i++ {
		key, err := domain.ShiftDate(date, i)
		if err != nil {
			return nil, err
		}
		out[i-1] = records[key]
	}
	return out, nil
}

// ceiling gathers the calibration window and computes the ceiling.
func (e *Engine) ceiling(date string, records map[string]*domain.Day) (calibration.Breakdown, error) {
	w := e.cfg.Ceiling.WindowDays
	recent := make([]float64, 0, w)
	days := make([]*domain.Day, 0, w)
	for i := 0; i < w; i++ {
		key, err := domain.ShiftDate(date, i)
		if err != nil {
			return calibration.Breakdown{}, err
		}
		if v, ok := e.store.Get(key); ok {
			recent = append(recent, v)
		}
		days = append(days, records[key])
	}
	return e.calibrator.Compute(recent, days), nil
}

// recovering reports a negative-to-nonnegative contribution turnaround
// against yesterday.
func (e *Engine) recovering(date string, todayDCS float64) bool {
	if todayDCS < 0 {
		return false
	}
	key, err := domain.ShiftDate(date, 1)
	if err != nil {
		return false
	}
	prev, ok := e.store.Get(key)
	return ok && prev < 0
}

// nextStepHint suggests the highest-value missing factor for the day.
func nextStepHint(day *domain.Day, ext signals.Extraction) string {
	if day == nil || !day.HasAnyData() {
		return "log your first meal to start the chain"
	}
	switch {
	case len(day.Meals) == 0:
		return "log your first meal to start the chain"
	case day.WeightMorning <= 0:
		return "a morning weigh-in adds a checkin link"
	case day.Steps == 0:
		return "sync your steps to score today's activity"
	case len(day.Trainings) == 0 && !ext.PostTraining:
		return "a short session would strengthen today's chain"
	}
	return ""
}
