// Package reconciler synchronizes the local store with the remote backend.
//
// The reconciler is the only writer of remote-origin data: it pulls
// authoritative reference scripts into the store, pushes queued local
// mutations from the outbox, and resolves the device identity mapping.
// It never touches the database directly; everything goes through store
// operations so a scheduled pass and a user-triggered manual sync can
// interleave without observing torn state.
//
// Failure policy: transport errors abort the current operation and are
// reported to the caller, who logs and defers to the next tick. Per-record
// validation failures are skipped and logged, never fatal to a batch.
package reconciler
