// Package store defines the snapshot persistence interface and its
// backends. A snapshot captures a runtime's externally observable progress
// (tick counter, serialized meta-graph, diagnostics) for inspection and
// visualization; operator state is never persisted.
package store

import (
	"context"
	"time"
)

// Snapshot records one runtime's progress at a point in time.
type Snapshot struct {
	ID          string         `json:"id"`
	RuntimeID   string         `json:"runtime_id"`
	RuntimeName string         `json:"runtime_name"`
	Tick        int            `json:"tick"`
	MetaGraph   string         `json:"meta_graph"`
	Diagnostics string         `json:"diagnostics"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   time.Time      `json:"timestamp"`
	Version     int            `json:"version"`
}

// SnapshotStore defines the interface for snapshot persistence
type SnapshotStore interface {
	// Save stores a snapshot
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load retrieves a snapshot by ID
	Load(ctx context.Context, snapshotID string) (*Snapshot, error)

	// List returns all snapshots for a given runtime
	List(ctx context.Context, runtimeID string) ([]*Snapshot, error)

	// Delete removes a snapshot
	Delete(ctx context.Context, snapshotID string) error

	// Clear removes all snapshots for a runtime
	Clear(ctx context.Context, runtimeID string) error
}
