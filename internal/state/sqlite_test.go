package state

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/fuzzrule/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(MemoryPath))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(MemoryPath))

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.EqualError(t, store.RecordRun(ctx, &Run{}), "database not opened")
	_, err := store.ListRuns(ctx, 10)
	assert.EqualError(t, err, "database not opened")
	assert.EqualError(t, store.Migrate(ctx), "database not opened")
	_, err = store.SchemaVersion(ctx)
	assert.ErrorIs(t, err, errNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &Run{
		Program:     "water.fz",
		ProgramHash: "abc",
		Facts:       map[string]float64{"water": 10},
		Result:      50,
		StartedAt:   base,
		Duration:    15 * time.Millisecond,
		Status:      RunStatusSuccess,
	}
	second := &Run{
		Program:   "water.fz",
		StartedAt: base.Add(time.Minute),
		Status:    RunStatusFailed,
		Error:     "undefined variable: level",
	}
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// newest first
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.Equal(t, "undefined variable: level", runs[0].Error)
	assert.Empty(t, runs[0].Facts)

	got := runs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "water.fz", got.Program)
	assert.Equal(t, "abc", got.ProgramHash)
	assert.Equal(t, map[string]float64{"water": 10}, got.Facts)
	assert.InDelta(t, 50.0, got.Result, 1e-9)
	assert.True(t, base.Equal(got.StartedAt))
	assert.Equal(t, 15*time.Millisecond, got.Duration)
	assert.Equal(t, RunStatusSuccess, got.Status)
	assert.Empty(t, got.Error)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.RecordRun(ctx, &Run{Program: "p.fz", Status: RunStatusSuccess}))
	require.NoError(t, store.Close())

	// migrations are idempotent on reopen
	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, path, reopened.Path())

	runs, err := reopened.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "p.fz", runs[0].Program)
	assert.False(t, runs[0].StartedAt.IsZero())
}

func TestSQLiteStore_ErrorWrapping(t *testing.T) {
	errDB := errors.New("disk I/O error")
	columns := []string{"id", "program", "program_hash", "facts", "result", "started_at", "duration_ms", "status", "error"}

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *SQLiteStore) error
		errSubstr string
	}{
		{
			name: "insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).WillReturnError(errDB)
			},
			call: func(s *SQLiteStore) error {
				return s.RecordRun(context.Background(), &Run{Program: "p.fz", Status: RunStatusSuccess})
			},
			errSubstr: "failed to record run",
		},
		{
			name: "query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program")).WillReturnError(errDB)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), 5)
				return err
			},
			errSubstr: "failed to list runs",
		},
		{
			name: "corrupt facts",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow("r1", "p.fz", "h", "{not json", 1.0, "2026-03-01T12:00:00.000000000Z", 3, "success", nil)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program")).WillReturnRows(rows)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), 5)
				return err
			},
			errSubstr: "failed to decode facts of run r1",
		},
		{
			name: "bad timestamp",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow("r2", "p.fz", "h", "{}", 1.0, "yesterday", 3, "success", nil)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program")).WillReturnRows(rows)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), 5)
				return err
			},
			errSubstr: "failed to parse start time of run r2",
		},
		{
			name: "row iteration fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(columns).
					AddRow("r3", "p.fz", "h", "{}", 1.0, "2026-03-01T12:00:00.000000000Z", 3, "success", nil).
					RowError(0, errDB)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, program")).WillReturnRows(rows)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListRuns(context.Background(), 5)
				return err
			},
			errSubstr: "failed to list runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			store := NewWithDB(db, testutil.NewTestLogger(t))

			err = tt.call(store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
