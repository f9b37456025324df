// Package store provides SQLite-backed durable storage for the agent's
// local-first state.
//
// The store owns five logical tables:
//   - scripts: local cache of backend-sourced remediation scripts
//   - metrics_history: locally collected samples pending replication
//   - device_cache: ephemeral key/value entries with optional expiry
//   - sync_queue: durable outbox of mutations awaiting replication
//   - settings: free-form key/value settings for the surrounding app
//
// The store is the only component permitted to touch the database; the
// reconciler and scheduler go through its methods. Every operation is
// scoped to a single statement, so concurrent callers (scheduler pass vs.
// a user-triggered manual sync) may interleave safely.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// SQLite only supports one writer at a time; the connection pool is capped
// at a single connection to avoid SQLITE_BUSY under contention.
package store
