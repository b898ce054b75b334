package cascade

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// readyGuard suppresses published results until history is known loaded.
// The expected path is an explicit MarkReady call from the sync layer; a
// bounded fallback timer promotes the guard anyway so first-time users with
// empty history never stall.
type readyGuard struct {
	mu      sync.Mutex
	ready   bool
	timer   *time.Timer
	started bool
}

// Arm starts the fallback timer. Safe to call more than once.
func (g *readyGuard) Arm(timeout time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.ready {
		return
	}
	g.started = true
	g.timer = time.AfterFunc(timeout, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if !g.ready {
			g.ready = true
			log.Warn().
				Str("component", "guard").
				Dur("timeout", timeout).
				Msg("history readiness signal missed, promoting by timeout")
		}
	})
}

// MarkReady records the explicit "history loaded" signal.
func (g *readyGuard) MarkReady() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = true
	if g.timer != nil {
		g.timer.Stop()
	}
}

func (g *readyGuard) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}
