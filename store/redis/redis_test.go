package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/tickflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisSnapshotStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s := NewRedisSnapshotStore(RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisSnapshotStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := &store.Snapshot{
		ID:          "snap-1",
		RuntimeID:   "rt-123",
		RuntimeName: "pipeline",
		Tick:        4,
		MetaGraph:   `{"nodes":[]}`,
		Timestamp:   time.Now().UTC(),
		Version:     1,
	}

	require.NoError(t, s.Save(ctx, snap))

	loaded, err := s.Load(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, loaded.ID)
	assert.Equal(t, snap.RuntimeID, loaded.RuntimeID)
	assert.Equal(t, 4, loaded.Tick)

	// List via the runtime index
	require.NoError(t, s.Save(ctx, &store.Snapshot{ID: "snap-2", RuntimeID: "rt-123", Version: 2, Timestamp: time.Now()}))
	list, err := s.List(ctx, "rt-123")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "snap-1", list[0].ID)
	assert.Equal(t, "snap-2", list[1].ID)

	// Delete removes from both key and index
	require.NoError(t, s.Delete(ctx, "snap-1"))
	_, err = s.Load(ctx, "snap-1")
	assert.Error(t, err)
	list, err = s.List(ctx, "rt-123")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Clear wipes the runtime
	require.NoError(t, s.Clear(ctx, "rt-123"))
	list, err = s.List(ctx, "rt-123")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisSnapshotStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.Error(t, err)
}
