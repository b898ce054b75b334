package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderlystv-png/heys-cascade/internal/persistence"
)

func newMockRepo(t *testing.T) (persistence.HistoryRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryRepo(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func TestUpsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO dcs_history").
		WithArgs("2025-06-15", 0.8, false, "v3.5.1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), persistence.HistoryEntry{
		Date:          "2025-06-15",
		DCS:           0.8,
		SchemaVersion: "v3.5.1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO dcs_history").
		WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), persistence.HistoryEntry{Date: "2025-06-15"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert history entry")
}

func TestUpsertBatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO dcs_history")
	prep.ExpectExec().
		WithArgs("2025-06-14", 0.5, false, "v3.5.1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("2025-06-15", 0.8, true, "v3.5.1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpsertBatch(context.Background(), []persistence.HistoryEntry{
		{Date: "2025-06-14", DCS: 0.5, SchemaVersion: "v3.5.1"},
		{Date: "2025-06-15", DCS: 0.8, Flagged: true, SchemaVersion: "v3.5.1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet(), "an empty batch touches nothing")
}

func TestUpsertBatchRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO dcs_history")
	prep.ExpectExec().
		WithArgs("2025-06-14", 0.5, false, "v3.5.1").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), []persistence.HistoryEntry{
		{Date: "2025-06-14", DCS: 0.5, SchemaVersion: "v3.5.1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-06-14")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"date", "dcs", "flagged", "schema_version", "updated_at"}).
		AddRow("2025-06-15", 0.8, false, "v3.5.1", now).
		AddRow("2025-06-14", -0.2, true, "v3.5.1", now)

	mock.ExpectQuery("SELECT date, dcs, flagged, schema_version, updated_at").
		WithArgs("v3.5.1", "2025-05-16").
		WillReturnRows(rows)

	entries, err := repo.Load(context.Background(), "v3.5.1", "2025-05-16")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-06-15", entries[0].Date)
	assert.InDelta(t, 0.8, entries[0].DCS, 0.001)
	assert.True(t, entries[1].Flagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT date, dcs, flagged, schema_version, updated_at").
		WithArgs("v3.5.1", "2025-05-16").
		WillReturnRows(sqlmock.NewRows([]string{"date", "dcs", "flagged", "schema_version", "updated_at"}))

	entries, err := repo.Load(context.Background(), "v3.5.1", "2025-05-16")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrune(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM dcs_history WHERE date").
		WithArgs("2025-05-11").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.Prune(context.Background(), "2025-05-11")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeVersion(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM dcs_history WHERE schema_version").
		WithArgs("v3.5.1").
		WillReturnResult(sqlmock.NewResult(0, 30))

	n, err := repo.PurgeVersion(context.Background(), "v3.5.1")
	require.NoError(t, err)
	assert.EqualValues(t, 30, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
