package momentum

import (
	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Classify maps a momentum value to the discrete state label. A day with no
// events at all is EMPTY regardless of the rolling value.
func Classify(cfg *config.MomentumConfig, crs float64, eventCount int) domain.State {
	if eventCount == 0 {
		return domain.StateEmpty
	}
	switch {
	case crs >= cfg.StrongAt:
		return domain.StateStrong
	case crs >= cfg.GrowingAt:
		return domain.StateGrowing
	case crs >= cfg.BuildingAt:
		return domain.StateBuilding
	case crs > cfg.RecoveryAt:
		return domain.StateRecovery
	}
	return domain.StateBroken
}
