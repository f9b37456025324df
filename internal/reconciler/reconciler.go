package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/microdiag/agent/internal/backend"
	"github.com/microdiag/agent/internal/store"
)

// outboxBatchSize caps how many queued mutations one replay pass drains.
const outboxBatchSize = 50

// maxStoredErrChars bounds the failure text persisted per outbox item so
// repeated failures cannot grow storage without bound.
const maxStoredErrChars = 2000

// Reconciler performs pull and push synchronization between the local
// store and the backend. Construct with New; all dependencies are
// explicit, there are no ambient singletons.
type Reconciler struct {
	store       *store.Store
	client      *backend.Client
	deviceToken string

	// mu serializes whole logical operations so a scheduled pass and a
	// manual sync never interleave inside one batch.
	mu sync.Mutex
}

// New creates a reconciler bound to a store, a backend client, and this
// device's identity token.
func New(st *store.Store, client *backend.Client, deviceToken string) *Reconciler {
	return &Reconciler{store: st, client: client, deviceToken: deviceToken}
}

// SyncScripts pulls all active reference scripts from the backend and
// upserts them into the local store. Rows failing validation (empty slug
// or body) are skipped and logged; the batch continues. Returns the number
// of rows successfully upserted.
//
// The whole operation fails only on transport error or a non-success
// HTTP status.
func (r *Reconciler) SyncScripts(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.client.FetchScripts(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync scripts: %w", err)
	}

	count := 0
	for _, row := range rows {
		sc, err := scriptFromRow(row)
		if err != nil {
			slog.Warn("skipping invalid script row", "id", row.ID, "error", err)
			continue
		}
		if err := r.store.UpsertScript(ctx, sc); err != nil {
			slog.Warn("failed to save script", "slug", sc.Slug, "error", err)
			continue
		}
		count++
	}

	slog.Info("scripts synced", "count", count, "received", len(rows))
	return count, nil
}

// scriptFromRow validates a backend row and maps it into the store entity.
// Slugs are NFC-normalized so byte-different encodings of the same slug
// cannot collide with the uniqueness constraint.
func scriptFromRow(row backend.ScriptRow) (store.Script, error) {
	slug := norm.NFC.String(row.Slug)
	if slug == "" {
		return store.Script{}, fmt.Errorf("empty slug")
	}
	if row.Code == "" {
		return store.Script{}, fmt.Errorf("empty code")
	}

	sc := store.Script{
		ID:            row.ID,
		Slug:          slug,
		Name:          row.Name,
		Category:      row.CategoryOrDefault(),
		Language:      row.LanguageOrDefault(),
		Code:          row.Code,
		IsActive:      row.ActiveOrDefault(),
		RequiresAdmin: row.AdminOrDefault(),
	}
	if row.Description != nil {
		sc.Description = *row.Description
	}
	if row.Icon != nil {
		sc.Icon = *row.Icon
	}
	if row.EstimatedTime != nil {
		sc.EstimatedTime = *row.EstimatedTime
	}
	if row.SuccessMessage != nil {
		sc.SuccessMessage = *row.SuccessMessage
	}
	return sc, nil
}

// ReplayOutbox drains one batch of eligible outbox items in FIFO order.
// Each item is replayed independently: confirmed success deletes it,
// failure increments its retry count and records the latest error text.
// Returns how many items succeeded and how many failed this pass.
func (r *Reconciler) ReplayOutbox(ctx context.Context) (succeeded, failed int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.store.ListEligibleOutbox(ctx, outboxBatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("replay outbox: %w", err)
	}

	for _, item := range items {
		if err := r.client.ReplayMutation(ctx, item.TableName, item.Payload); err != nil {
			failed++
			errText := backend.Truncate(err.Error(), maxStoredErrChars)
			if ferr := r.store.FailOutbox(ctx, item.ID, errText); ferr != nil {
				slog.Error("failed to record outbox failure", "id", item.ID, "error", ferr)
			}
			continue
		}

		if err := r.store.AckOutbox(ctx, item.ID); err != nil {
			// The backend accepted the row; next replay is an upsert,
			// so leaving the item queued is safe.
			slog.Error("failed to ack outbox item", "id", item.ID, "error", err)
			continue
		}
		succeeded++
	}

	if succeeded > 0 || failed > 0 {
		slog.Info("outbox replayed", "succeeded", succeeded, "failed", failed)
	}
	return succeeded, failed, nil
}

// metricsUpload is the wire shape for one replicated sample.
type metricsUpload struct {
	DeviceToken   string  `json:"device_token"`
	Timestamp     string  `json:"timestamp"`
	CPUUsage      float64 `json:"cpu_usage"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	HealthScore   int     `json:"health_score"`
	HealthStatus  string  `json:"health_status"`
}

// PushMetrics ships one capped batch of unsynced samples to the backend
// and marks them synced on confirmed success. Returns the number of
// samples shipped.
func (r *Reconciler) PushMetrics(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples, err := r.store.ListUnsyncedMetrics(ctx)
	if err != nil {
		return 0, fmt.Errorf("push metrics: %w", err)
	}
	if len(samples) == 0 {
		return 0, nil
	}

	uploads := make([]metricsUpload, len(samples))
	ids := make([]int64, len(samples))
	for i, m := range samples {
		uploads[i] = metricsUpload{
			DeviceToken:   r.deviceToken,
			Timestamp:     m.Timestamp,
			CPUUsage:      m.CPUUsage,
			MemoryPercent: m.MemoryPercent,
			DiskPercent:   m.DiskPercent,
			HealthScore:   m.HealthScore,
			HealthStatus:  m.HealthStatus,
		}
		ids[i] = m.ID
	}

	payload, err := json.Marshal(uploads)
	if err != nil {
		return 0, fmt.Errorf("push metrics: encode batch: %w", err)
	}

	if err := r.client.ReplayMutation(ctx, "metrics_history", string(payload)); err != nil {
		return 0, fmt.Errorf("push metrics: %w", err)
	}

	if err := r.store.MarkMetricsSynced(ctx, ids); err != nil {
		return len(samples), fmt.Errorf("push metrics: mark synced: %w", err)
	}

	slog.Info("metrics pushed", "count", len(samples))
	return len(samples), nil
}

// Sweep runs store maintenance: metrics retention and expired cache
// entries. Each failure is logged and swallowed so one broken sweep never
// blocks the other.
func (r *Reconciler) Sweep(ctx context.Context) {
	if n, err := r.store.PruneMetrics(ctx); err != nil {
		slog.Warn("metrics cleanup failed", "error", err)
	} else if n > 0 {
		slog.Debug("metrics pruned", "deleted", n)
	}

	if n, err := r.store.PruneExpiredCache(ctx); err != nil {
		slog.Warn("cache cleanup failed", "error", err)
	} else if n > 0 {
		slog.Debug("cache pruned", "deleted", n)
	}
}
