package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Truncation bounds for action result text, matching what the backend
// accepts for the output and error columns.
const (
	MaxOutputChars = 10000
	MaxErrorChars  = 5000
)

// defaultTimeout bounds every API call; pingTimeout is tighter because the
// reachability probe runs on interactive paths.
const (
	defaultTimeout = 30 * time.Second
	pingTimeout    = 5 * time.Second
)

// Client is a typed REST client for the sync backend.
// Safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	// now supplies the executed_at stamp. Overridable in tests.
	now func() time.Time
}

// New creates a client for the given base URL and static API key.
// The key is sent as both the bearer token and the apikey header.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: defaultTimeout},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchScripts pulls all active reference rows in a single request.
func (c *Client) FetchScripts(ctx context.Context) ([]ScriptRow, error) {
	const op = "fetch scripts"

	body, err := c.get(ctx, op, "/rest/v1/scripts?is_active=eq.true&select=*")
	if err != nil {
		return nil, err
	}

	var rows []ScriptRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return rows, nil
}

// LookupDevice resolves a device token to its backend-assigned id.
// Returns ErrDeviceNotFound when the token has no registration yet.
func (c *Client) LookupDevice(ctx context.Context, token string) (string, error) {
	const op = "lookup device"

	body, err := c.get(ctx, op,
		"/rest/v1/devices?device_token=eq."+url.QueryEscape(token)+"&select=id")
	if err != nil {
		return "", err
	}

	var rows []deviceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return "", &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", ErrDeviceNotFound
	}
	return rows[0].ID, nil
}

// FetchAuthorizedActions returns actions addressed to the device that an
// operator has authorized, with the nested script join inlined.
func (c *Client) FetchAuthorizedActions(ctx context.Context, deviceID string) ([]ActionRow, error) {
	const op = "fetch actions"

	body, err := c.get(ctx, op,
		"/rest/v1/remote_executions?device_id=eq."+url.QueryEscape(deviceID)+
			"&status=eq.authorized&select=id,script_id,status,scripts(name,code,language),requested_by")
	if err != nil {
		return nil, err
	}

	var rows []ActionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return rows, nil
}

// UpdateAction patches a remote action's status. Output and error text are
// truncated before transmission; terminal statuses (completed, failed) are
// stamped with an execution timestamp.
func (c *Client) UpdateAction(ctx context.Context, id, status, output, errText string) error {
	const op = "update action"

	patch := actionPatch{
		Status: status,
		Output: Truncate(output, MaxOutputChars),
		Error:  Truncate(errText, MaxErrorChars),
	}
	if status == "completed" || status == "failed" {
		patch.ExecutedAt = c.now().Format(time.RFC3339)
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode patch: %w", err)}
	}

	return c.send(ctx, op, http.MethodPatch,
		"/rest/v1/remote_executions?id=eq."+url.QueryEscape(id), payload, nil)
}

// ReplayMutation pushes one queued local mutation. The backend treats the
// POST as an upsert, so at-least-once delivery from the outbox is safe.
func (c *Client) ReplayMutation(ctx context.Context, table, payload string) error {
	return c.send(ctx, "replay mutation", http.MethodPost,
		"/rest/v1/"+url.PathEscape(table), []byte(payload),
		map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"})
}

// Ping probes backend reachability with a short timeout.
// A 400 counts as online: the bare REST root rejects the request but
// proves the service answered.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return false
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 300 || resp.StatusCode == http.StatusBadRequest
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

// send performs an authenticated write request with a JSON body.
func (c *Client) send(ctx context.Context, op, method, path string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	if headers == nil {
		req.Header.Set("Prefer", "return=minimal")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}
