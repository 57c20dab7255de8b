package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/tickflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSnapshotStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSnapshotStoreWithPool(mock, "snapshots")

	snap := &store.Snapshot{
		ID:          "snap-1",
		RuntimeID:   "rt-1",
		RuntimeName: "pipeline",
		Tick:        3,
		MetaGraph:   `{"nodes":[]}`,
		Diagnostics: "ok",
		Metadata:    map[string]any{"host": "ci"},
		Timestamp:   time.Now(),
		Version:     1,
	}
	metadataJSON, _ := json.Marshal(snap.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO snapshots")).
		WithArgs(
			snap.ID,
			snap.RuntimeID,
			snap.RuntimeName,
			snap.Tick,
			snap.MetaGraph,
			snap.Diagnostics,
			metadataJSON,
			snap.Timestamp,
			snap.Version,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSnapshotStoreWithPool(mock, "snapshots")

	ts := time.Now()
	metadataJSON := []byte(`{"host":"ci"}`)

	rows := pgxmock.NewRows([]string{
		"id", "runtime_id", "runtime_name", "tick", "meta_graph", "diagnostics", "metadata", "timestamp", "version",
	}).AddRow("snap-1", "rt-1", "pipeline", 3, `{"nodes":[]}`, "ok", metadataJSON, ts, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version")).
		WithArgs("snap-1").
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", loaded.ID)
	assert.Equal(t, 3, loaded.Tick)
	assert.Equal(t, "ci", loaded.Metadata["host"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_LoadMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSnapshotStoreWithPool(mock, "snapshots")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Load(context.Background(), "missing")
	assert.ErrorContains(t, err, "snapshot not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSnapshotStoreWithPool(mock, "snapshots")

	ts := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "runtime_id", "runtime_name", "tick", "meta_graph", "diagnostics", "metadata", "timestamp", "version",
	}).
		AddRow("s1", "rt-1", "p", 1, "{}", "", []byte(nil), ts, 1).
		AddRow("s2", "rt-1", "p", 2, "{}", "", []byte(nil), ts, 2)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE runtime_id = $1")).
		WithArgs("rt-1").
		WillReturnRows(rows)

	list, err := s.List(context.Background(), "rt-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, 2, list[1].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_DeleteClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSnapshotStoreWithPool(mock, "snapshots")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM snapshots WHERE id = $1")).
		WithArgs("snap-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.Delete(context.Background(), "snap-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM snapshots WHERE runtime_id = $1")).
		WithArgs("rt-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	require.NoError(t, s.Clear(context.Background(), "rt-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
