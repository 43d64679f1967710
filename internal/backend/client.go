// Package backend implements the HTTP client for the search backend's
// search and partition endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"logsearch/internal/domain"
)

var _ domain.SearchClient = (*Client)(nil)

// Client talks to one backend organization over HTTP.
type Client struct {
	baseURL string
	org     string
	token   string // Authorization header value, forwarded verbatim
	http    *http.Client
}

// New creates a Client for the given base URL and organization. token is
// the full Authorization header value ("Basic …" or "Bearer …"); empty
// means unauthenticated.
func New(baseURL, org, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		org:     org,
		token:   token,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

// Search executes one search fetch.
func (c *Client) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	var resp domain.SearchResponse
	url := fmt.Sprintf("%s/api/%s/_search", c.baseURL, c.org)
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Partition splits a time range into fetchable partitions.
func (c *Client) Partition(ctx context.Context, req *domain.PartitionRequest) (*domain.PartitionResponse, error) {
	var resp domain.PartitionResponse
	url := fmt.Sprintf("%s/api/%s/_search_partition", c.baseURL, c.org)
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorBody is the backend's failure envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError converts a non-2xx response into an UpstreamError. Bodies
// that are not the JSON envelope pass through as the raw message.
func decodeError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && (body.Error != "" || body.Message != "") {
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		return &domain.UpstreamError{Code: body.Code, Message: msg}
	}
	return &domain.UpstreamError{Code: 0, Message: fmt.Sprintf("backend returned status %d: %s", status, strings.TrimSpace(string(data)))}
}
