// Package chain maintains the within-day consecutive-success counter with
// soft degradation: a negative event erodes the streak proportionally to
// its severity instead of resetting it.
package chain

import (
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Result is the chain walk outcome for one day.
type Result struct {
	Length    int            `json:"length"`
	MaxToday  int            `json:"max_today"`
	Breaks    []domain.Break `json:"breaks,omitempty"`
	HasBreak  bool           `json:"has_break"`
}

// Walk processes events in time order. Positive events extend the chain by
// one; negative events erode it by a severity-tiered penalty, never below
// zero.
func Walk(events []domain.Event, cfg *config.ChainConfig) Result {
	var res Result
	for _, ev := range events {
		if ev.Positive {
			res.Length++
			if res.Length > res.MaxToday {
				res.MaxToday = res.Length
			}
			continue
		}

		res.HasBreak = true
		if res.Length > 0 {
			reason := ev.BreakReason
			if reason == "" {
				reason = "deviation"
			}
			res.Breaks = append(res.Breaks, domain.Break{
				Time:        ev.Time,
				Reason:      reason,
				Label:       ev.Label,
				ChainBefore: res.Length,
			})
		}
		res.Length -= Penalty(ev.Weight, cfg)
		if res.Length < 0 {
			res.Length = 0
		}
	}
	return res
}

// Penalty maps a negative event weight to its erosion tier.
func Penalty(weight float64, cfg *config.ChainConfig) int {
	switch {
	case weight >= cfg.MildThreshold:
		return 1
	case weight >= cfg.SevereThreshold:
		return 2
	default:
		return 3
	}
}
