// Package history persists daily contribution scores by calendar date,
// versioned by a schema tag, with retention pruning and a migration table
// for scoring-formula revisions.
package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kinderlystv-png/heys-cascade/internal/config"
	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// Snapshot is the persisted form of the history: a date-keyed numeric map
// plus the schema tag it was written under. Flagged lists dates whose
// values came from a scoring path later found incorrect; the estimator
// recomputes them.
type Snapshot struct {
	Version string             `json:"version"`
	Entries map[string]float64 `json:"entries"`
	Flagged []string           `json:"flagged,omitempty"`
}

// Strategy says what to do with history written under an older schema tag.
type Strategy int

const (
	// StrategyDiscard purges the map and forces a full backfill. Correct
	// when formula semantics changed non-linearly.
	StrategyDiscard Strategy = iota
	// StrategyReestimate keeps the entries but flags every date for
	// recomputation by the retroactive estimator.
	StrategyReestimate
	// StrategyTransform rewrites values in place.
	StrategyTransform
)

// Migration describes how one old schema tag is brought forward.
type Migration struct {
	Strategy  Strategy
	Transform func(map[string]float64) map[string]float64
}

// migrations maps known old schema tags to their upgrade path. Unknown
// tags fall back to discard.
var migrations = map[string]Migration{
	// v3.4.1 shipped a deficit override that fired on maintenance goals;
	// the trend shape is still usable, so values are flagged for
	// re-estimation instead of purged.
	"v3.4.1": {Strategy: StrategyReestimate},
}

// Store is the mutable DCS history for one user context. Single writer per
// user; the mutex only protects against concurrent readers.
type Store struct {
	mu      sync.RWMutex
	version string
	cfg     config.HistoryConfig
	entries map[string]float64
	flagged map[string]bool
}

// NewStore creates an empty history at the current schema version.
func NewStore(cfg config.HistoryConfig) *Store {
	return &Store{
		version: cfg.SchemaVersion,
		cfg:     cfg,
		entries: make(map[string]float64),
		flagged: make(map[string]bool),
	}
}

// Restore loads a persisted snapshot through the migration table.
func Restore(snap Snapshot, cfg config.HistoryConfig) *Store {
	s := NewStore(cfg)
	if snap.Version == cfg.SchemaVersion {
		for k, v := range snap.Entries {
			s.entries[k] = v
		}
		for _, d := range snap.Flagged {
			s.flagged[d] = true
		}
		return s
	}

	mig, known := migrations[snap.Version]
	if !known {
		mig = Migration{Strategy: StrategyDiscard}
	}

	switch mig.Strategy {
	case StrategyReestimate:
		for k, v := range snap.Entries {
			s.entries[k] = v
			s.flagged[k] = true
		}
	case StrategyTransform:
		if mig.Transform != nil {
			for k, v := range mig.Transform(snap.Entries) {
				s.entries[k] = v
			}
		}
	case StrategyDiscard:
		// Intentional full purge: formula changes invalidate old values
		// non-linearly, incremental repair would corrupt the trend.
	}

	log.Info().
		Str("component", "cascade").
		Str("from_version", snap.Version).
		Str("to_version", cfg.SchemaVersion).
		Int("kept", len(s.entries)).
		Int("flagged", len(s.flagged)).
		Msg("history schema migration")
	return s
}

// Upsert records the DCS for a date and clears any stale flag on it.
func (s *Store) Upsert(date string, dcs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[date] = dcs
	delete(s.flagged, date)
}

// Delete removes a date's value and its re-estimation flag.
func (s *Store) Delete(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, date)
	delete(s.flagged, date)
}

// Get returns the DCS for a date.
func (s *Store) Get(date string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[date]
	return v, ok
}

// Flagged reports whether a date's value awaits re-estimation.
func (s *Store) Flagged(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flagged[date]
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the date map.
func (s *Store) Entries() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Prune removes entries older than the retention window relative to today.
func (s *Store) Prune(today string) {
	cutoffDate, err := domain.ShiftDate(today, s.cfg.RetentionDays)
	if err != nil {
		return
	}
	cutoff, _ := time.Parse(domain.DateLayout, cutoffDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k := range s.entries {
		t, err := time.Parse(domain.DateLayout, k)
		if err != nil || t.Before(cutoff) {
			delete(s.entries, k)
			delete(s.flagged, k)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().
			Str("component", "cascade").
			Int("removed", removed).
			Str("cutoff", cutoffDate).
			Msg("history pruned")
	}
}

// Snapshot exports the persisted form.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Version: s.version,
		Entries: make(map[string]float64, len(s.entries)),
	}
	for k, v := range s.entries {
		snap.Entries[k] = v
	}
	for d := range s.flagged {
		snap.Flagged = append(snap.Flagged, d)
	}
	return snap
}
