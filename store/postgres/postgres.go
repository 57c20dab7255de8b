package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/tickflow/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSnapshotStore implements store.SnapshotStore using PostgreSQL
type PostgresSnapshotStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "snapshots"
}

// NewPostgresSnapshotStore creates a new Postgres snapshot store
func NewPostgresSnapshotStore(ctx context.Context, opts PostgresOptions) (*PostgresSnapshotStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "snapshots"
	}

	return &PostgresSnapshotStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewPostgresSnapshotStoreWithPool creates a new Postgres snapshot store with an existing pool.
// Useful for testing with mocks.
func NewPostgresSnapshotStoreWithPool(pool DBPool, tableName string) *PostgresSnapshotStore {
	if tableName == "" {
		tableName = "snapshots"
	}
	return &PostgresSnapshotStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresSnapshotStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			runtime_id TEXT NOT NULL,
			runtime_name TEXT NOT NULL,
			tick INTEGER NOT NULL,
			meta_graph JSONB,
			diagnostics TEXT,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_runtime_id ON %s (runtime_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresSnapshotStore) Close() {
	s.pool.Close()
}

// Save stores a snapshot
func (s *PostgresSnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	metadataJSON, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			runtime_id = EXCLUDED.runtime_id,
			runtime_name = EXCLUDED.runtime_name,
			tick = EXCLUDED.tick,
			meta_graph = EXCLUDED.meta_graph,
			diagnostics = EXCLUDED.diagnostics,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp,
			version = EXCLUDED.version
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.RuntimeID,
		snapshot.RuntimeName,
		snapshot.Tick,
		snapshot.MetaGraph,
		snapshot.Diagnostics,
		metadataJSON,
		snapshot.Timestamp,
		snapshot.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func scanSnapshot(row pgx.Row) (*store.Snapshot, error) {
	var snap store.Snapshot
	var metadataJSON []byte
	err := row.Scan(
		&snap.ID,
		&snap.RuntimeID,
		&snap.RuntimeName,
		&snap.Tick,
		&snap.MetaGraph,
		&snap.Diagnostics,
		&metadataJSON,
		&snap.Timestamp,
		&snap.Version,
	)
	if err != nil {
		return nil, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &snap.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &snap, nil
}

// Load retrieves a snapshot by ID
func (s *PostgresSnapshotStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version
		FROM %s
		WHERE id = $1
	`, s.tableName)

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, snapshotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// List returns all snapshots for a given runtime, oldest version first
func (s *PostgresSnapshotStore) List(ctx context.Context, runtimeID string) ([]*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version
		FROM %s
		WHERE runtime_id = $1
		ORDER BY version ASC, timestamp ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, runtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*store.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Delete removes a snapshot
func (s *PostgresSnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, snapshotID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a runtime
func (s *PostgresSnapshotStore) Clear(ctx context.Context, runtimeID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE runtime_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, runtimeID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
