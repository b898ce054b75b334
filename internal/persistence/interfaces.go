// Package persistence defines the storage contracts for contribution
// history and result snapshots.
package persistence

import (
	"context"
	"time"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// HistoryEntry is one persisted contribution value.
type HistoryEntry struct {
	Date          string    `json:"date" db:"date"`
	DCS           float64   `json:"dcs" db:"dcs"`
	Flagged       bool      `json:"flagged" db:"flagged"`
	SchemaVersion string    `json:"schema_version" db:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HistoryRepo persists date-keyed contribution values, versioned by schema
// tag. A version mismatch on load discards the stored rows rather than
// migrating them.
type HistoryRepo interface {
	// Upsert writes one entry, replacing any prior value for the date.
	Upsert(ctx context.Context, entry HistoryEntry) error

	// UpsertBatch writes several entries atomically (backfill path).
	UpsertBatch(ctx context.Context, entries []HistoryEntry) error

	// Load returns all entries matching the schema version since the
	// cutoff date, newest first.
	Load(ctx context.Context, schemaVersion, sinceDate string) ([]HistoryEntry, error)

	// Prune removes entries dated before the cutoff.
	Prune(ctx context.Context, beforeDate string) (int64, error)

	// PurgeVersion deletes every entry NOT carrying the given schema
	// version. Used on version bump to force a full backfill.
	PurgeVersion(ctx context.Context, keepVersion string) (int64, error)
}

// SnapshotCache holds the latest published result and the history map for
// fast reads and cross-process warm starts.
type SnapshotCache interface {
	StoreResult(ctx context.Context, userID string, res *domain.Result, ttl time.Duration) error
	LoadResult(ctx context.Context, userID string) (*domain.Result, error)
	StoreHistory(ctx context.Context, userID, version string, entries map[string]float64, ttl time.Duration) error
	LoadHistory(ctx context.Context, userID string) (version string, entries map[string]float64, err error)
}
