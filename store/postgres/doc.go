// Package postgres provides a SnapshotStore backed by PostgreSQL through
// jackc/pgx connection pooling, with JSONB columns for the meta-graph and
// metadata. Best for production deployments where snapshots are queried
// across processes.
package postgres
