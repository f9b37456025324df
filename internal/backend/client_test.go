package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a stub backend handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL, "test-key")
}

func TestFetchScripts_DecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/scripts", r.URL.Path)
		require.Equal(t, "is_active=eq.true&select=*", r.URL.RawQuery)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "test-key", r.Header.Get("apikey"))

		io.WriteString(w, `[
			{"id":"s-1","slug":"flush-dns","name":"Flush DNS","category":"network","code":"ipconfig /flushdns"},
			{"id":"s-2","slug":"clean-temp","name":"Clean temp","code":"Remove-Item"}
		]`)
	})

	rows, err := c.FetchScripts(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "network", rows[0].CategoryOrDefault())
	require.Equal(t, "general", rows[1].CategoryOrDefault(), "missing category defaults")
	require.Equal(t, "powershell", rows[1].LanguageOrDefault(), "missing language defaults")
	require.True(t, rows[1].ActiveOrDefault(), "missing is_active defaults to true")
	require.False(t, rows[1].AdminOrDefault(), "missing requires_admin defaults to false")
}

func TestFetchScripts_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchScripts(context.Background())
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusServiceUnavailable, te.Status)
}

func TestLookupDevice_Found(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "device_token=eq.tok-1&select=id", r.URL.RawQuery)
		io.WriteString(w, `[{"id":"dev-42"}]`)
	})

	id, err := c.LookupDevice(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, "dev-42", id)
}

func TestLookupDevice_NotRegistered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})

	_, err := c.LookupDevice(context.Background(), "tok-1")
	require.ErrorIs(t, err, ErrDeviceNotFound)
	require.False(t, IsTransport(err), "not-found must be distinguishable from transport failure")
}

func TestFetchAuthorizedActions_NestedJoin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.RawQuery, "device_id=eq.dev-42")
		require.Contains(t, r.URL.RawQuery, "status=eq.authorized")
		io.WriteString(w, `[
			{"id":"a-1","script_id":"s-1","status":"authorized",
			 "scripts":{"name":"Flush DNS","code":"ipconfig /flushdns","language":"powershell"}},
			{"id":"a-2","script_id":"s-2","status":"authorized"}
		]`)
	})

	rows, err := c.FetchAuthorizedActions(context.Background(), "dev-42")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Script)
	require.Equal(t, "Flush DNS", *rows[0].Script.Name)
	require.Nil(t, rows[1].Script, "missing nested join decodes as nil")
}

func TestUpdateAction_PatchPayload(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "id=eq.a-1", r.URL.RawQuery)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	})
	c.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }

	err := c.UpdateAction(context.Background(), "a-1", "completed", "cache vidé", "")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "update_action_completed", body)
}

func TestUpdateAction_TruncatesOutput(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	})

	long := strings.Repeat("x", MaxOutputChars+500)
	err := c.UpdateAction(context.Background(), "a-1", "running", long, "")
	require.NoError(t, err)

	require.LessOrEqual(t, len(body), MaxOutputChars+200, "output must be truncated before transmission")
	require.NotContains(t, string(body), "executed_at", "non-terminal status carries no timestamp")
}

func TestReplayMutation_UpsertHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/metrics_history", r.URL.Path)
		require.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.ReplayMutation(context.Background(), "metrics_history", `{"cpu_usage":10}`)
	require.NoError(t, err)
}

func TestReplayMutation_FailureStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := c.ReplayMutation(context.Background(), "metrics_history", `{}`)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusConflict, te.Status)
}

func TestPing(t *testing.T) {
	online := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest) // bare REST root answers 400
	})
	require.True(t, online.Ping(context.Background()))

	down := New("http://127.0.0.1:1", "test-key")
	require.False(t, down.Ping(context.Background()))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 10))
	require.Equal(t, "ab", Truncate("abc", 2))
	require.Equal(t, "", Truncate("abc", 0))
	require.Equal(t, "éà", Truncate("éàü", 2), "truncation counts runes, not bytes")
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Op: "fetch scripts", Err: inner}
	require.ErrorIs(t, err, inner)
}
