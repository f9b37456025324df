package store

import (
	"context"
	"database/sql"
	"time"
)

// CacheSet stores a key/value entry, overwriting any existing one.
// A nil ttl means the entry never expires. Expiry is stored as a computed
// UTC timestamp so a restarted process observes the same deadline.
func (s *Store) CacheSet(ctx context.Context, key, value string, ttl *time.Duration) error {
	var expiresAt any
	if ttl != nil {
		expiresAt = s.now().Add(*ttl).Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO device_cache (key, value, expires_at) VALUES (?, ?, ?)
	`, key, value, expiresAt)
	if err != nil {
		return storageErr("cache set", err)
	}
	return nil
}

// CacheGet returns the value for key. A missing key and an expired entry
// are indistinguishable: both return ok=false. Expired entries are not
// deleted on read; removal is the sweep's job.
func (s *Store) CacheGet(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expiresAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM device_cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("cache get", err)
	}

	if expiresAt.Valid {
		deadline, err := time.Parse(time.RFC3339, expiresAt.String)
		if err != nil || !s.now().Before(deadline) {
			return "", false, nil
		}
	}

	return value, true, nil
}

// CacheDelete removes an entry. Deleting a missing key is not an error.
func (s *Store) CacheDelete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_cache WHERE key = ?`, key)
	if err != nil {
		return storageErr("cache delete", err)
	}
	return nil
}

// PruneExpiredCache deletes all expired entries and returns the count.
func (s *Store) PruneExpiredCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM device_cache WHERE expires_at IS NOT NULL AND expires_at < ?`,
		s.now().Format(time.RFC3339))
	if err != nil {
		return 0, storageErr("prune cache", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("prune cache: rows affected", err)
	}
	return n, nil
}
