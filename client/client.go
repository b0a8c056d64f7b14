// Package client talks to the marketplace HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// Sessions is the part of the session store the client needs.
type Sessions interface {
	Token() string
	Login(token string, user *models.User) error
	Logout() error
}

// Client is a marketplace API client. Calls are never retried and carry no
// timeout of their own; the caller's context bounds them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   Sessions
	logger     *utils.Logger
}

// New creates a client for the API rooted at baseURL+prefix, e.g.
// "http://localhost:5000" and "/api".
func New(baseURL, prefix string, sessions Sessions, logger *utils.Logger) *Client {
	root := strings.TrimRight(baseURL, "/")
	if p := strings.Trim(prefix, "/"); p != "" {
		root += "/" + p
	}
	return &Client{
		baseURL:    root,
		httpClient: &http.Client{},
		sessions:   sessions,
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// request describes one API call.
type request struct {
	method   string
	path     string
	body     io.Reader
	ctype    string
	auth     bool
	fallback string
}

// doRequest sends req and returns the response body of a 2xx reply.
func (c *Client) doRequest(ctx context.Context, req request) ([]byte, error) {
	token := ""
	if req.auth {
		if token = c.sessions.Token(); token == "" {
			return nil, ErrAuthRequired
		}
	}

	ctx, traceID := utils.EnsureTraceID(ctx)
	url := c.baseURL + req.path

	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, req.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("X-Trace-ID", traceID)
	httpReq.Header.Set("Accept", "application/json")
	if req.ctype != "" {
		httpReq.Header.Set("Content-Type", req.ctype)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("request failed", "method", req.method, "url", url, "trace_id", traceID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, body, req.fallback)
		c.logger.Warn("api returned error",
			"method", req.method,
			"path", req.path,
			"status", resp.StatusCode,
			"trace_id", traceID,
			"message", apiErr.Message,
		)
		if req.auth && resp.StatusCode == http.StatusUnauthorized {
			// the token was rejected; drop it so callers see a signed-out session
			if err := c.sessions.Logout(); err != nil {
				c.logger.Warn("failed to clear rejected session", "error", err)
			}
		}
		return nil, apiErr
	}

	c.logger.Debug("api call", "method", req.method, "path", req.path, "status", resp.StatusCode, "trace_id", traceID)
	return body, nil
}

// doJSON sends payload as JSON and decodes the reply into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, payload, out any, fallback string) error {
	var body io.Reader
	ctype := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		ctype = "application/json"
	}

	resp, err := c.doRequest(ctx, request{method: method, path: path, body: body, ctype: ctype, auth: auth, fallback: fallback})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeArray decodes a JSON array element by element and leaves out empty
// for any other JSON value. Elements that do not decode as T are skipped.
func decodeArray[T any](data []byte, logger *utils.Logger) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]T, 0, len(elems))
	for i, e := range elems {
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			logger.Warn("skipping undecodable array element", "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
