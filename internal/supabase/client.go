// Package supabase is a thin client for the Supabase admin surface: the
// GoTrue admin API and PostgREST remote procedure calls. It always
// authenticates with the service-role key and keeps no session state.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authAdminPath = "/auth/v1/admin"
	rpcPath       = "/rest/v1/rpc"
)

// Client wraps interactions with a Supabase project using the service-role key.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient constructs a new client. A zero timeout falls back to 30 seconds.
func NewClient(baseURL, serviceKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("supabase: base url required")
	}
	if serviceKey == "" {
		return nil, errors.New("supabase: service role key required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("supabase: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("supabase: base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// do issues a request against the project and decodes a JSON response into
// out when out is non-nil. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, payload)
	}
	if out != nil && len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return nil, fmt.Errorf("supabase: decode response: %w", err)
		}
	}
	return resp, nil
}
