// Package memory provides an in-memory SnapshotStore, the default backend
// for tests and single-process diagnostics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/tickflow/store"
)

// MemorySnapshotStore implements store.SnapshotStore with a process-local map.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*store.Snapshot
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snapshots: make(map[string]*store.Snapshot),
	}
}

// Save stores a snapshot, replacing any existing one with the same ID.
func (s *MemorySnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return fmt.Errorf("snapshot must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	s.snapshots[snapshot.ID] = &cp
	return nil
}

// Load retrieves a snapshot by ID.
func (s *MemorySnapshotStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[snapshotID]
	if !ok {
		return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
	}
	cp := *snap
	return &cp, nil
}

// List returns all snapshots for a runtime, ordered by version then timestamp.
func (s *MemorySnapshotStore) List(ctx context.Context, runtimeID string) ([]*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*store.Snapshot
	for _, snap := range s.snapshots {
		if snap.RuntimeID == runtimeID {
			cp := *snap
			out = append(out, &cp)
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

// Delete removes a snapshot by ID.
func (s *MemorySnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, snapshotID)
	return nil
}

// Clear removes all snapshots for a runtime.
func (s *MemorySnapshotStore) Clear(ctx context.Context, runtimeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range s.snapshots {
		if snap.RuntimeID == runtimeID {
			delete(s.snapshots, id)
		}
	}
	return nil
}
