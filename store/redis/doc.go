// Package redis provides a SnapshotStore backed by Redis: in-memory
// performance with optional TTL expiration of old snapshots. Best when
// diagnostics are consumed quickly and retention should be bounded.
package redis
