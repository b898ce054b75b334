package signals

import (
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// TrainingWeight scores one session on a sqrt diminishing-returns curve:
// load doubles do not double the weight. sessionIdx discounts repeat
// sessions in the same day: a second workout recovers half the credit, a
// third or later a quarter.
func TrainingWeight(tr domain.Training, sessionIdx int, cfg *config.TrainingConfig) float64 {
	dur := float64(tr.EffectiveDuration())
	mult := 1.0
	if m, ok := cfg.IntensityMult[tr.Type]; ok {
		mult = m
	}
	load := dur * mult

	divisor := cfg.LoadDivisor
	if divisor <= 0 {
		divisor = 30
	}
	base := num.Clamp(math.Sqrt(load/divisor)*cfg.Scale, cfg.MinWeight, cfg.MaxWeight)

	switch {
	case sessionIdx == 1:
		return base * cfg.SecondSessionMult
	case sessionIdx >= 2:
		return base * cfg.LaterSessionMult
	}
	return base
}
