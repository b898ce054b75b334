// Package momentum computes the decayed rolling score (CRS) from contribution
// history, plus its trend and peak streak, and classifies the result state.
package momentum

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Lookup resolves a contribution value by date key. Missing days return
// ok=false and are skipped, not treated as zero.
type Lookup func(date string) (float64, bool)

// Aggregator computes CRS over the configured window.
type Aggregator struct {
	cfg *config.MomentumConfig
}

func NewAggregator(cfg *config.MomentumConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Rolling is the aggregation output before clamping to the ceiling.
type Rolling struct {
	CRS        float64      `json:"crs"`
	Base       float64      `json:"crs_base"`
	TodayBoost float64      `json:"today_boost"`
	Trend      domain.Trend `json:"trend"`
	DaysAtPeak int          `json:"days_at_peak"`
}

// Compute aggregates completed-day contributions with exponential decay,
// adds the same-day boost, and clamps into [0, ceiling].
//
// today is the current date key; todayDCS is today's live contribution.
func (a *Aggregator) Compute(today string, todayDCS float64, ceiling float64, dcs Lookup) (Rolling, error) {
	var weighted, weightSum float64
	for i := 1; i < a.cfg.WindowDays; i++ {
		key, err := domain.ShiftDate(today, i)
		if err != nil {
			return Rolling{}, err
		}
		v, ok := dcs(key)
		if !ok {
			continue
		}
		w := math.Pow(a.cfg.DecayAlpha, float64(i-1))
		weighted += v * w
		weightSum += w
	}

	r := Rolling{}
	if weightSum > 0 {
		r.Base = weighted / weightSum
	}
	r.TodayBoost = math.Max(0, todayDCS) * a.cfg.TodayBoostMax
	r.CRS = num.Clamp(r.Base+r.TodayBoost, 0, ceiling)

	var err error
	r.Trend, err = a.trend(today, todayDCS, dcs)
	if err != nil {
		return Rolling{}, err
	}
	r.DaysAtPeak, err = a.peakStreak(today, todayDCS, dcs)
	if err != nil {
		return Rolling{}, err
	}

	log.Debug().
		Str("component", "momentum").
		Float64("crs", r.CRS).
		Float64("base", r.Base).
		Float64("boost", r.TodayBoost).
		Str("trend", string(r.Trend)).
		Int("days_at_peak", r.DaysAtPeak).
		Msg("momentum aggregated")
	return r, nil
}

// trend compares the mean contribution of the last 3 days against days 4..7
// ago. Both windows skip missing days.
func (a *Aggregator) trend(today string, todayDCS float64, dcs Lookup) (domain.Trend, error) {
	recent, err := a.windowMean(today, todayDCS, dcs, 0, 2)
	if err != nil {
		return domain.TrendFlat, err
	}
	prior, err := a.windowMean(today, todayDCS, dcs, 4, 7)
	if err != nil {
		return domain.TrendFlat, err
	}
	switch {
	case recent-prior > a.cfg.TrendDelta:
		return domain.TrendUp, nil
	case recent-prior < -a.cfg.TrendDelta:
		return domain.TrendDown, nil
	}
	return domain.TrendFlat, nil
}

func (a *Aggregator) windowMean(today string, todayDCS float64, dcs Lookup, from, to int) (float64, error) {
	var sum float64
	n := 0
	for i := from; i <= to; i++ {
		v, ok, err := a.at(today, todayDCS, dcs, i)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// peakStreak counts consecutive days from today backward with a contribution
// at or above the peak threshold. Today below threshold zeroes the streak.
func (a *Aggregator) peakStreak(today string, todayDCS float64, dcs Lookup) (int, error) {
	streak := 0
	for i := 0; i < a.cfg.WindowDays; i++ {
		v, ok, err := a.at(today, todayDCS, dcs, i)
		if err != nil {
			return 0, err
		}
		if !ok || v < a.cfg.PeakThreshold {
			break
		}
		streak++
	}
	return streak, nil
}

// at resolves the contribution i days back, with day 0 served by the live
// value rather than the store.
func (a *Aggregator) at(today string, todayDCS float64, dcs Lookup, i int) (float64, bool, error) {
	if i == 0 {
		return todayDCS, true, nil
	}
	key, err := domain.ShiftDate(today, i)
	if err != nil {
		return 0, false, err
	}
	v, ok := dcs(key)
	return v, ok, nil
}
