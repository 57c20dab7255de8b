package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/tickflow/store"
)

// SqliteSnapshotStore implements store.SnapshotStore using SQLite
type SqliteSnapshotStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "snapshots"
}

// NewSqliteSnapshotStore creates a new SQLite snapshot store
func NewSqliteSnapshotStore(opts SqliteOptions) (*SqliteSnapshotStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "snapshots"
	}

	s := &SqliteSnapshotStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteSnapshotStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			runtime_id TEXT NOT NULL,
			runtime_name TEXT NOT NULL,
			tick INTEGER NOT NULL,
			meta_graph TEXT NOT NULL,
			diagnostics TEXT,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_runtime_id ON %s (runtime_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteSnapshotStore) Close() error {
	return s.db.Close()
}

// Save stores a snapshot
func (s *SqliteSnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	metadataJSON, err := json.Marshal(snapshot.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			runtime_id = excluded.runtime_id,
			runtime_name = excluded.runtime_name,
			tick = excluded.tick,
			meta_graph = excluded.meta_graph,
			diagnostics = excluded.diagnostics,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp,
			version = excluded.version
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.RuntimeID,
		snapshot.RuntimeName,
		snapshot.Tick,
		snapshot.MetaGraph,
		snapshot.Diagnostics,
		string(metadataJSON),
		snapshot.Timestamp,
		snapshot.Version,
	)

	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Load retrieves a snapshot by ID
func (s *SqliteSnapshotStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version
		FROM %s
		WHERE id = ?
	`, s.tableName)

	var snap store.Snapshot
	var metadataJSON string

	err := s.db.QueryRowContext(ctx, query, snapshotID).Scan(
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
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &snap.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &snap, nil
}

// List returns all snapshots for a given runtime, oldest version first
func (s *SqliteSnapshotStore) List(ctx context.Context, runtimeID string) ([]*store.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, runtime_id, runtime_name, tick, meta_graph, diagnostics, metadata, timestamp, version
		FROM %s
		WHERE runtime_id = ?
		ORDER BY version ASC, timestamp ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, runtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*store.Snapshot
	for rows.Next() {
		var snap store.Snapshot
		var metadataJSON string
		if err := rows.Scan(
			&snap.ID,
			&snap.RuntimeID,
			&snap.RuntimeName,
			&snap.Tick,
			&snap.MetaGraph,
			&snap.Diagnostics,
			&metadataJSON,
			&snap.Timestamp,
			&snap.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &snap.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// Delete removes a snapshot
func (s *SqliteSnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, snapshotID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a runtime
func (s *SqliteSnapshotStore) Clear(ctx context.Context, runtimeID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE runtime_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runtimeID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
