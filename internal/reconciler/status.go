package reconciler

import (
	"context"
	"log/slog"
)

// SyncState summarizes the agent's replication posture.
type SyncState string

const (
	// StateSynced means the backend is reachable and nothing is queued.
	StateSynced SyncState = "synced"

	// StatePending means the backend is reachable but mutations await
	// replication.
	StatePending SyncState = "pending"

	// StateOffline means the backend did not answer the reachability
	// probe.
	StateOffline SyncState = "offline"

	// StateError means the local store could not be read.
	StateError SyncState = "error"
)

// SyncStatus is the user-facing summary surfaced by the status command.
type SyncStatus struct {
	State   SyncState `json:"state"`
	Pending int       `json:"pending"`
	Scripts int       `json:"scripts"`
}

// Status reports the current sync posture: backend reachability, queued
// outbox depth, and how populated the local script cache is.
func (r *Reconciler) Status(ctx context.Context) SyncStatus {
	pending, pendingErr := r.store.CountPendingOutbox(ctx)
	if pendingErr != nil {
		slog.Warn("failed to count outbox", "error", pendingErr)
	}

	scripts, scriptsErr := r.store.CountActiveScripts(ctx)
	if scriptsErr != nil {
		slog.Warn("failed to count scripts", "error", scriptsErr)
	}

	status := SyncStatus{Pending: pending, Scripts: scripts}
	switch {
	case pendingErr != nil || scriptsErr != nil:
		status.State = StateError
	case !r.client.Ping(ctx):
		status.State = StateOffline
	case pending > 0:
		status.State = StatePending
	default:
		status.State = StateSynced
	}
	return status
}
