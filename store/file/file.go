// Package file provides a SnapshotStore backed by JSON files in a
// directory, one file per snapshot.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smallnest/tickflow/store"
)

// FileSnapshotStore implements store.SnapshotStore on the local filesystem.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates a store rooted at dir, creating it if needed.
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the snapshot as a JSON file named after its ID.
func (s *FileSnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("snapshot must have an ID")
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(snapshot.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot by ID.
func (s *FileSnapshotStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	data, err := os.ReadFile(s.path(snapshotID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// List returns all snapshots for a runtime, ordered by version then timestamp.
func (s *FileSnapshotStore) List(ctx context.Context, runtimeID string) ([]*store.Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}
	var out []*store.Snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		snap, err := s.Load(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		if snap.RuntimeID == runtimeID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes a snapshot file.
func (s *FileSnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	if err := os.Remove(s.path(snapshotID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshot files of a runtime.
func (s *FileSnapshotStore) Clear(ctx context.Context, runtimeID string) error {
	snaps, err := s.List(ctx, runtimeID)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if err := s.Delete(ctx, snap.ID); err != nil {
			return err
		}
	}
	return nil
}
