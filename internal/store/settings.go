package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// deviceTokenKey is the settings key holding this device's stable identity
// token. The backend maps it 1:1 to a backend-assigned device id.
const deviceTokenKey = "device_token"

// SetSetting stores a key/value setting, overwriting any existing value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)
	`, key, value, s.now().Format(timeLayout))
	if err != nil {
		return storageErr("set setting", err)
	}
	return nil
}

// GetSetting returns the value for key, with ok=false when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get setting", err)
	}
	return value, true, nil
}

// EnsureDeviceToken returns the persisted device token, generating and
// storing a fresh one on first run. The token never changes afterwards.
func (s *Store) EnsureDeviceToken(ctx context.Context) (string, error) {
	token, ok, err := s.GetSetting(ctx, deviceTokenKey)
	if err != nil {
		return "", err
	}
	if ok {
		return token, nil
	}

	token = uuid.NewString()
	if err := s.SetSetting(ctx, deviceTokenKey, token); err != nil {
		return "", err
	}
	return token, nil
}
