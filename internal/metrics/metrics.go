// Package metrics exposes Prometheus instrumentation for the cascade
// pipeline.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Registry holds all cascade metrics.
type Registry struct {
	// Pipeline performance
	ComputeDuration prometheus.Histogram
	Computes        *prometheus.CounterVec

	// Cache performance
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Current scores
	CRS     prometheus.Gauge
	Ceiling prometheus.Gauge
	DCS     prometheus.Gauge
	State   *prometheus.GaugeVec

	// Backfill
	BackfilledDays prometheus.Counter

	reg *prometheus.Registry
}

// NewRegistry creates and registers all cascade metrics.
func NewRegistry() *Registry {
	r := &Registry{
		ComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cascade_compute_duration_seconds",
				Help:    "Duration of one full pipeline computation",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		Computes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_computes_total",
				Help: "Total pipeline computations by outcome",
			},
			[]string{"outcome"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_cache_hits_total",
				Help: "Total computation cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_cache_misses_total",
				Help: "Total computation cache misses",
			},
		),
		CRS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_crs",
				Help: "Current rolling momentum value",
			},
		),
		Ceiling: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_ceiling",
				Help: "Current personalized momentum ceiling",
			},
		),
		DCS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_daily_contribution",
				Help: "Latest daily contribution score",
			},
		),
		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cascade_state",
				Help: "Current momentum state (1 for active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		BackfilledDays: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_backfilled_days_total",
				Help: "Total historical days reconstructed by the estimator",
			},
		),
		reg: prometheus.NewRegistry(),
	}

	r.reg.MustRegister(
		r.ComputeDuration, r.Computes,
		r.CacheHits, r.CacheMisses,
		r.CRS, r.Ceiling, r.DCS, r.State,
		r.BackfilledDays,
	)
	return r
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Publish implements the engine publisher hook: every published result
// updates the score gauges.
func (r *Registry) Publish(res *domain.Result) {
	r.CRS.Set(res.CRS)
	r.Ceiling.Set(res.Ceiling)
	r.DCS.Set(res.DailyContribution)

	for _, s := range []domain.State{
		domain.StateEmpty, domain.StateBuilding, domain.StateGrowing,
		domain.StateStrong, domain.StateBroken, domain.StateRecovery,
	} {
		v := 0.0
		if s == res.State {
			v = 1.0
		}
		r.State.WithLabelValues(fmt.Sprint(s)).Set(v)
	}
}
