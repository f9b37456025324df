package scheduler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/microdiag/agent/internal/backend"
	"github.com/microdiag/agent/internal/reconciler"
	"github.com/microdiag/agent/internal/store"
)

func newTestSetup(t *testing.T, handler http.HandlerFunc) (*reconciler.Reconciler, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := backend.New(srv.URL, "test-key")
	return reconciler.New(st, client, "tok-1"), st
}

func TestStart_InitialSyncAfterSettleDelay(t *testing.T) {
	var pulls atomic.Int32
	rec, _ := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/rest/v1/scripts") {
			pulls.Add(1)
		}
		io.WriteString(w, `[]`)
	})

	s := New(rec, Options{
		SettleDelay:  10 * time.Millisecond,
		SyncInterval: time.Hour,
		PollInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	require.Eventually(t, func() bool { return pulls.Load() == 1 },
		2*time.Second, 10*time.Millisecond,
		"initial sync should fire after the settle delay, not a full interval")
}

func TestSyncPass_FailuresAreSwallowed(t *testing.T) {
	rec, st := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	// Seed state the sweep should still clean despite the sync failing.
	_, err := st.DB().Exec(`
		INSERT INTO metrics_history (timestamp, cpu_usage, memory_percent, disk_percent, health_score, health_status, synced)
		VALUES ('2020-01-01 00:00:00', 1, 1, 1, 100, 'online', 1)
	`)
	require.NoError(t, err)

	s := New(rec, Options{})

	// Must not panic, and must run the sweep after the failed sync.
	s.SyncPass(ctx)
	s.SyncPass(ctx)

	recent, err := st.ListRecentMetrics(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent, "sweep runs regardless of sync outcome")
}

func TestPollPass_DeliversActions(t *testing.T) {
	rec, _ := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/rest/v1/devices"):
			io.WriteString(w, `[{"id":"dev-42"}]`)
		case strings.HasPrefix(r.URL.Path, "/rest/v1/remote_executions"):
			io.WriteString(w, `[{"id":"a-1","script_id":"s-1","status":"authorized",
				"scripts":{"name":"Flush DNS","code":"ipconfig /flushdns"}}]`)
		default:
			io.WriteString(w, `[]`)
		}
	})

	var got []reconciler.RemoteAction
	s := New(rec, Options{
		OnActions: func(ctx context.Context, actions []reconciler.RemoteAction) {
			got = actions
		},
	})

	s.pollPass(context.Background())

	require.Len(t, got, 1)
	require.Equal(t, "a-1", got[0].ID)
}

func TestPollPass_EmptyResultNotDelivered(t *testing.T) {
	rec, _ := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	delivered := false
	s := New(rec, Options{
		OnActions: func(ctx context.Context, actions []reconciler.RemoteAction) {
			delivered = true
		},
	})

	s.pollPass(context.Background())
	require.False(t, delivered, "an unregistered device polls quietly")
}

func TestStop_Idempotent(t *testing.T) {
	rec, _ := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	s := New(rec, Options{SettleDelay: time.Hour, SyncInterval: time.Hour})
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()
}

func TestStart_ContextCancellationStops(t *testing.T) {
	rec, _ := newTestSetup(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	s := New(rec, Options{SettleDelay: time.Hour, SyncInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.cron == nil
	}, 2*time.Second, 10*time.Millisecond, "cancelling the context stops the cron runner")
}

func TestDefaults(t *testing.T) {
	s := New(nil, Options{})
	require.Equal(t, DefaultSettleDelay, s.opts.SettleDelay)
	require.Equal(t, DefaultSyncInterval, s.opts.SyncInterval)
	require.Equal(t, DefaultPollInterval, s.opts.PollInterval)
}
