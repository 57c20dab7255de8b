// Package store provides persistence backends for tickflow runtime
// snapshots.
//
// A Snapshot captures a runtime's externally observable progress: the
// tick counter, the serialized meta-graph, and the front-end diagnostics
// blob. Snapshots exist for inspection and visualization tooling; the
// engine never persists operator state, and a restarted runtime always
// begins from a fresh graph.
//
// # Store Interface
//
// All implementations satisfy SnapshotStore:
//
//	type SnapshotStore interface {
//	    Save(ctx context.Context, snapshot *Snapshot) error
//	    Load(ctx context.Context, snapshotID string) (*Snapshot, error)
//	    List(ctx context.Context, runtimeID string) ([]*Snapshot, error)
//	    Delete(ctx context.Context, snapshotID string) error
//	    Clear(ctx context.Context, runtimeID string) error
//	}
//
// # Available Implementations
//
//   - store/memory: process-local map; the default for tests.
//   - store/file: one JSON file per snapshot in a directory.
//   - store/sqlite: serverless file database, zero configuration.
//   - store/postgres: pgx-pooled PostgreSQL with JSONB columns.
//   - store/redis: in-memory store with optional TTL expiration.
//
// # Choosing a Backend
//
// Use memory or file during development; sqlite when snapshots should
// survive the process on one machine; postgres when several processes
// share diagnostics; redis when retention should expire automatically.
//
// # Example
//
//	st, err := sqlite.NewSqliteSnapshotStore(sqlite.SqliteOptions{
//	    Path: "./snapshots.db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	snap := rt.Snapshot()
//	if err := st.Save(ctx, snap); err != nil {
//	    return err
//	}
package store
