package store

import (
	"context"
	"fmt"
)

// unsyncedBatchCap bounds the batch size handed to the reconciler so a
// long offline backlog drains in pieces instead of one oversized request.
const unsyncedBatchCap = 100

// retentionDays is how long synced samples are kept before the sweep
// removes them. Unsynced samples are retained regardless of age.
const retentionDays = 7

// Metrics is a locally collected health sample.
// Timestamp is assigned at insert by the database in UTC.
type Metrics struct {
	ID            int64
	Timestamp     string
	CPUUsage      float64
	MemoryPercent float64
	DiskPercent   float64
	HealthScore   int
	HealthStatus  string
	Synced        bool
}

// InsertMetrics appends a sample and returns its assigned id.
// The timestamp is set by the database at insert time.
func (s *Store) InsertMetrics(ctx context.Context, m Metrics) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics_history (cpu_usage, memory_percent, disk_percent, health_score, health_status)
		VALUES (?, ?, ?, ?, ?)
	`,
		m.CPUUsage,
		m.MemoryPercent,
		m.DiskPercent,
		m.HealthScore,
		m.HealthStatus,
	)
	if err != nil {
		return 0, storageErr("insert metrics", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert metrics: last insert id", err)
	}
	return id, nil
}

// ListRecentMetrics returns up to limit samples, most recent first.
func (s *Store) ListRecentMetrics(ctx context.Context, limit int) ([]Metrics, error) {
	return s.queryMetrics(ctx, `
		SELECT id, timestamp, cpu_usage, memory_percent, disk_percent, health_score, health_status, synced
		FROM metrics_history ORDER BY timestamp DESC LIMIT ?
	`, limit)
}

// ListUnsyncedMetrics returns unsynced samples oldest first, capped to
// bound replication batch size.
func (s *Store) ListUnsyncedMetrics(ctx context.Context) ([]Metrics, error) {
	return s.queryMetrics(ctx, `
		SELECT id, timestamp, cpu_usage, memory_percent, disk_percent, health_score, health_status, synced
		FROM metrics_history WHERE synced = 0 ORDER BY timestamp ASC LIMIT ?
	`, unsyncedBatchCap)
}

// MarkMetricsSynced flips synced=1 for each id. Ids are applied
// independently: a missing id is skipped without aborting the rest.
func (s *Store) MarkMetricsSynced(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx,
			`UPDATE metrics_history SET synced = 1 WHERE id = ?`, id)
		if err != nil {
			return storageErr("mark metrics synced", err)
		}
	}
	return nil
}

// PruneMetrics deletes synced samples older than the retention window and
// returns the number of rows removed. Unsynced samples are never pruned.
func (s *Store) PruneMetrics(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays).Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM metrics_history WHERE synced = 1 AND timestamp < ?`, cutoff)
	if err != nil {
		return 0, storageErr("prune metrics", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("prune metrics: rows affected", err)
	}
	return n, nil
}

func (s *Store) queryMetrics(ctx context.Context, query string, args ...any) ([]Metrics, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query metrics", err)
	}
	defer rows.Close()

	var samples []Metrics
	for rows.Next() {
		var m Metrics
		var synced int
		err := rows.Scan(
			&m.ID, &m.Timestamp, &m.CPUUsage, &m.MemoryPercent,
			&m.DiskPercent, &m.HealthScore, &m.HealthStatus, &synced,
		)
		if err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m.Synced = synced == 1
		samples = append(samples, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}

	if samples == nil {
		samples = []Metrics{}
	}

	return samples, nil
}
