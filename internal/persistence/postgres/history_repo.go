// Package postgres implements the contribution-history repository on
// PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kinderlystv-png/heys-cascade/internal/persistence"
)

// historyRepo implements persistence.HistoryRepo for PostgreSQL.
type historyRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHistoryRepo creates a new PostgreSQL history repository.
func NewHistoryRepo(db *sqlx.DB, timeout time.Duration) persistence.HistoryRepo {
	return &historyRepo{
		db:      db,
		timeout: timeout,
	}
}

// Connect opens a pooled connection and verifies it.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// Upsert writes one entry, replacing any prior value for the date.
func (r *historyRepo) Upsert(ctx context.Context, entry persistence.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO dcs_history (date, dcs, flagged, schema_version, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (date)
		DO UPDATE SET dcs = EXCLUDED.dcs,
		              flagged = EXCLUDED.flagged,
		              schema_version = EXCLUDED.schema_version,
		              updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query,
		entry.Date, entry.DCS, entry.Flagged, entry.SchemaVersion); err != nil {
		return fmt.Errorf("failed to upsert history entry: %w", err)
	}
	return nil
}

// UpsertBatch writes several entries atomically.
func (r *historyRepo) UpsertBatch(ctx context.Context, entries []persistence.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dcs_history (date, dcs, flagged, schema_version, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (date)
		DO UPDATE SET dcs = EXCLUDED.dcs,
		              flagged = EXCLUDED.flagged,
		              schema_version = EXCLUDED.schema_version,
		              updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date, e.DCS, e.Flagged, e.SchemaVersion); err != nil {
			return fmt.Errorf("failed to upsert entry %s in batch: %w", e.Date, err)
		}
	}
	return tx.Commit()
}

// Load returns entries of the given schema version since the cutoff date,
// newest first.
func (r *historyRepo) Load(ctx context.Context, schemaVersion, sinceDate string) ([]persistence.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT date, dcs, flagged, schema_version, updated_at
		FROM dcs_history
		WHERE schema_version = $1 AND date >= $2
		ORDER BY date DESC`

	rows, err := r.db.QueryxContext(ctx, query, schemaVersion, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var entries []persistence.HistoryEntry
	for rows.Next() {
		var e persistence.HistoryEntry
		if err := rows.StructScan(&e); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}

// Prune removes entries dated before the cutoff.
func (r *historyRepo) Prune(ctx context.Context, beforeDate string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM dcs_history WHERE date < $1`, beforeDate)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// PurgeVersion deletes every entry not carrying the given schema version.
func (r *historyRepo) PurgeVersion(ctx context.Context, keepVersion string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM dcs_history WHERE schema_version <> $1`, keepVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale versions: %w", err)
	}
	return res.RowsAffected()
}
