// Package sqlite provides a SnapshotStore backed by SQLite: serverless,
// file-based, zero configuration. Best for single-process applications and
// local development.
package sqlite
