package store

import (
	"path/filepath"
	"testing"
	"time"
)

// newTestStore opens a store backed by a throwaway database file.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

// freezeClock pins the store's clock to a fixed instant and returns a
// function that advances it.
func freezeClock(s *Store, at time.Time) func(d time.Duration) {
	current := at
	s.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}
