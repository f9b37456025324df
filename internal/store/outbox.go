package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MaxRetries bounds replay attempts per outbox item. An item that reaches
// this count is parked: excluded from eligible listings but retained in
// storage indefinitely for operator inspection.
const MaxRetries = 5

// OutboxItem is a durable intent to replicate a local mutation to the
// backend. The payload is opaque to the store.
type OutboxItem struct {
	ID         int64
	TableName  string
	Operation  string
	Payload    string
	CreatedAt  string
	RetryCount int
	LastError  string
}

// EnqueueOutbox records a pending mutation and returns its id.
func (s *Store) EnqueueOutbox(ctx context.Context, table, op, payload string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (table_name, operation, data) VALUES (?, ?, ?)
	`, table, op, payload)
	if err != nil {
		return 0, storageErr("enqueue outbox", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("enqueue outbox: last insert id", err)
	}
	return id, nil
}

// ListEligibleOutbox returns items still inside the retry budget, oldest
// first, capped at limit. Parked items are excluded.
func (s *Store) ListEligibleOutbox(ctx context.Context, limit int) ([]OutboxItem, error) {
	return s.queryOutbox(ctx, `
		SELECT id, table_name, operation, data, created_at, retry_count, COALESCE(last_error, '')
		FROM sync_queue WHERE retry_count < ? ORDER BY created_at ASC LIMIT ?
	`, MaxRetries, limit)
}

// ListAllOutbox returns every queued item including parked ones, oldest
// first. Used for operator inspection of stuck mutations.
func (s *Store) ListAllOutbox(ctx context.Context) ([]OutboxItem, error) {
	return s.queryOutbox(ctx, `
		SELECT id, table_name, operation, data, created_at, retry_count, COALESCE(last_error, '')
		FROM sync_queue ORDER BY created_at ASC
	`)
}

// CountPendingOutbox returns the number of items awaiting replication,
// parked items included.
func (s *Store) CountPendingOutbox(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	if err != nil {
		return 0, storageErr("count outbox", err)
	}
	return count, nil
}

// AckOutbox deletes an item after confirmed replication.
// Deletion is the only path out of the queue.
func (s *Store) AckOutbox(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return storageErr("ack outbox", err)
	}
	return nil
}

// FailOutbox records a failed replay attempt: retry_count is incremented
// and last_error is overwritten with the latest failure description.
func (s *Store) FailOutbox(ctx context.Context, id int64, errText string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE id = ?
	`, errText, id)
	if err != nil {
		return storageErr("fail outbox", err)
	}
	return nil
}

func (s *Store) queryOutbox(ctx context.Context, query string, args ...any) ([]OutboxItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query outbox", err)
	}
	defer rows.Close()

	var items []OutboxItem
	for rows.Next() {
		item, err := scanOutboxItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}

	if items == nil {
		items = []OutboxItem{}
	}

	return items, nil
}

func scanOutboxItem(rows *sql.Rows) (OutboxItem, error) {
	var item OutboxItem
	err := rows.Scan(
		&item.ID, &item.TableName, &item.Operation, &item.Payload,
		&item.CreatedAt, &item.RetryCount, &item.LastError,
	)
	if err != nil {
		return OutboxItem{}, fmt.Errorf("scan outbox item: %w", err)
	}
	return item, nil
}
