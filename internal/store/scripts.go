package store

import (
	"context"
	"fmt"
)

// Script is the local copy of a backend-sourced remediation script.
// Rows are authoritative on the backend; locally they are created and
// updated only by the reconciler's pull and never mutated by readers.
type Script struct {
	ID             string
	Slug           string
	Name           string
	Description    string
	Category       string
	Language       string
	Code           string
	Icon           string
	IsActive       bool
	RequiresAdmin  bool
	EstimatedTime  string
	SuccessMessage string
}

const scriptColumns = `id, slug, name, COALESCE(description, ''), category, language, code,
	COALESCE(icon, ''), is_active, requires_admin,
	COALESCE(estimated_time, ''), COALESCE(success_message, '')`

// UpsertScript inserts or replaces a script keyed by id.
// Replaying the same backend row is idempotent: the row is overwritten in
// place and synced_at is refreshed.
func (s *Store) UpsertScript(ctx context.Context, sc Script) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scripts
		(id, slug, name, description, category, language, code, icon,
		 is_active, requires_admin, estimated_time, success_message, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sc.ID,
		sc.Slug,
		sc.Name,
		sc.Description,
		sc.Category,
		sc.Language,
		sc.Code,
		sc.Icon,
		boolToInt(sc.IsActive),
		boolToInt(sc.RequiresAdmin),
		sc.EstimatedTime,
		sc.SuccessMessage,
		s.now().Format(timeLayout),
	)
	if err != nil {
		return storageErr("upsert script", err)
	}
	return nil
}

// ListScripts returns all active scripts ordered by (category, name).
// An empty result is valid, not an error.
func (s *Store) ListScripts(ctx context.Context) ([]Script, error) {
	return s.queryScripts(ctx, `
		SELECT `+scriptColumns+`
		FROM scripts WHERE is_active = 1 ORDER BY category, name
	`)
}

// ListScriptsByCategory returns active scripts in one category, ordered by name.
func (s *Store) ListScriptsByCategory(ctx context.Context, category string) ([]Script, error) {
	return s.queryScripts(ctx, `
		SELECT `+scriptColumns+`
		FROM scripts WHERE is_active = 1 AND category = ? ORDER BY name
	`, category)
}

// CountActiveScripts returns the number of active scripts.
// Used for fast "is the local cache populated" checks.
func (s *Store) CountActiveScripts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scripts WHERE is_active = 1`,
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count scripts", err)
	}
	return count, nil
}

func (s *Store) queryScripts(ctx context.Context, query string, args ...any) ([]Script, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query scripts", err)
	}
	defer rows.Close()

	var scripts []Script
	for rows.Next() {
		var sc Script
		var active, admin int
		err := rows.Scan(
			&sc.ID, &sc.Slug, &sc.Name, &sc.Description, &sc.Category,
			&sc.Language, &sc.Code, &sc.Icon, &active, &admin,
			&sc.EstimatedTime, &sc.SuccessMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		sc.IsActive = active == 1
		sc.RequiresAdmin = admin == 1
		scripts = append(scripts, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scripts: %w", err)
	}

	// Return empty slice instead of nil
	if scripts == nil {
		scripts = []Script{}
	}

	return scripts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
