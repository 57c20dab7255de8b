package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/tickflow/store"
)

// RedisSnapshotStore implements store.SnapshotStore using Redis
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "tickflow:"
	TTL      time.Duration // Expiration for snapshots, default 0 (no expiration)
}

// NewRedisSnapshotStore creates a new Redis snapshot store
func NewRedisSnapshotStore(opts RedisOptions) *RedisSnapshotStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tickflow:"
	}

	return &RedisSnapshotStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisSnapshotStore) snapshotKey(id string) string {
	return fmt.Sprintf("%ssnapshot:%s", s.prefix, id)
}

func (s *RedisSnapshotStore) runtimeKey(id string) string {
	return fmt.Sprintf("%sruntime:%s:snapshots", s.prefix, id)
}

// Save stores a snapshot
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := s.snapshotKey(snapshot.ID)
	pipe := s.client.Pipeline()

	pipe.Set(ctx, key, data, s.ttl)

	if snapshot.RuntimeID != "" {
		rtKey := s.runtimeKey(snapshot.RuntimeID)
		pipe.SAdd(ctx, rtKey, snapshot.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, rtKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}

	return nil
}

// Load retrieves a snapshot by ID
func (s *RedisSnapshotStore) Load(ctx context.Context, snapshotID string) (*store.Snapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(snapshotID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
		}
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// List returns all snapshots for a given runtime, ordered by version
func (s *RedisSnapshotStore) List(ctx context.Context, runtimeID string) ([]*store.Snapshot, error) {
	ids, err := s.client.SMembers(ctx, s.runtimeKey(runtimeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for runtime %s: %w", runtimeID, err)
	}

	var out []*store.Snapshot
	for _, id := range ids {
		snap, err := s.Load(ctx, id)
		if err != nil {
			// Expired snapshots may linger in the index.
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes a snapshot
func (s *RedisSnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	snap, err := s.Load(ctx, snapshotID)
	if err == nil && snap.RuntimeID != "" {
		s.client.SRem(ctx, s.runtimeKey(snap.RuntimeID), snapshotID)
	}
	if err := s.client.Del(ctx, s.snapshotKey(snapshotID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Clear removes all snapshots for a runtime
func (s *RedisSnapshotStore) Clear(ctx context.Context, runtimeID string) error {
	rtKey := s.runtimeKey(runtimeID)
	ids, err := s.client.SMembers(ctx, rtKey).Result()
	if err != nil {
		return fmt.Errorf("failed to clear snapshots for runtime %s: %w", runtimeID, err)
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.snapshotKey(id))
	}
	pipe.Del(ctx, rtKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
