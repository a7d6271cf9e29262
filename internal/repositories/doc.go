// Package repositories implements SQLite persistence for sync history.
//
// Key Implementations:
//   - [SyncRunRepository] : one row per run in sync_runs, with its per-entry decisions in sync_events
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
