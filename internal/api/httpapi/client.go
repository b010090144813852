package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/skystream/internal/app/playback"
)

// Client calls the session API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. token is sent as
// the admin token when non-empty.
func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Snapshot fetches the current snapshot.
func (c *Client) Snapshot(ctx context.Context) (playback.Snapshot, error) {
	var snap playback.Snapshot
	err := c.do(ctx, http.MethodGet, "/v1/session", nil, nil, &snap)
	return snap, err
}

// Intent posts an intent such as "play" or "seek" with query params and
// returns the resulting snapshot.
func (c *Client) Intent(ctx context.Context, name string, params url.Values) (playback.Snapshot, error) {
	var snap playback.Snapshot
	err := c.do(ctx, http.MethodPost, "/v1/session/"+name, params, nil, &snap)
	return snap, err
}

// Move posts a navigation intent ("next", "previous" or "select").
func (c *Client) Move(ctx context.Context, name string, params url.Values) (MoveResponse, error) {
	var resp MoveResponse
	err := c.do(ctx, http.MethodPost, "/v1/session/"+name, params, nil, &resp)
	return resp, err
}

// Open replaces the playlist.
func (c *Client) Open(ctx context.Context, req OpenRequest) (playback.Snapshot, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return playback.Snapshot{}, errors.Wrap(err, "failed to encode request")
	}
	var snap playback.Snapshot
	err = c.do(ctx, http.MethodPost, "/v1/session/open", nil, bytes.NewReader(body), &snap)
	return snap, err
}

// Watch streams snapshots to fn until ctx is cancelled or the server ends
// the stream.
func (c *Client) Watch(ctx context.Context, fn func(playback.Snapshot)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/session/events", nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to open event stream")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("event stream: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var snap playback.Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return errors.Wrap(err, "failed to decode snapshot")
		}
		fn(snap)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "event stream interrupted")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(AdminTokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return errors.Newf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return errors.Newf("%s %s: %s (status %d)", method, path, e.Error, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
