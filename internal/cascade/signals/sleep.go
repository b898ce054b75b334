package signals

import (
	"math"

	"github.com/kinderlystv-png/heys-cascade/internal/cascade/num"
	"github.com/kinderlystv-png/heys-cascade/internal/config"
)

// OnsetWeight scores bedtime against the chronotype-adjusted optimum with a
// tanh-shaped curve: small deviations cost little, an hour past the optimum
// approaches the full penalty. Falling asleep earlier than the optimum earns
// a shallower bonus. Onsets at or past the hard floor bypass the curve.
func OnsetWeight(onsetMin, optimalMin int, cfg *config.SleepConfig) (weight float64, hardFloor bool) {
	hardAt := NormalizeOnset(clockOrDefault(cfg.OnsetHardFloor, "02:00"))
	if onsetMin >= hardAt {
		return cfg.OnsetMaxPenalty, true
	}

	dev := float64(onsetMin - optimalMin) // positive = later than optimum
	scale := cfg.OnsetScaleMin
	if scale <= 0 {
		scale = 90
	}
	if dev <= 0 {
		return cfg.OnsetMaxBonus * math.Tanh(-dev/scale), false
	}
	return cfg.OnsetMaxPenalty * math.Tanh(dev/scale), false
}

// DurationWeight scores sleep length on a Gaussian bell around the personal
// optimum. Under-sleep is penalized harder than over-sleep, and the optimum
// stretches after a heavy training day (recovery need). Below the hard
// minimum the bell is bypassed entirely.
func DurationWeight(hours, optimal float64, prevTrainingMin int, cfg *config.SleepConfig) (weight float64, hardFloor bool) {
	if hours < cfg.HardMinHours {
		return cfg.MaxPenalty, true
	}

	if prevTrainingMin >= cfg.RecoveryLoadMin && cfg.RecoveryLoadMin > 0 {
		optimal += cfg.RecoveryExtraHours
	}

	dev := hours - optimal
	if dev < 0 {
		dev *= cfg.UnderSleepFactor
	}
	bell := num.Bell(dev, cfg.BellSigmaHours)
	return cfg.MaxPenalty + (cfg.MaxBonus-cfg.MaxPenalty)*bell, false
}
