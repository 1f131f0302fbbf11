// Package client is a Go SDK for the regulations retrieval service.
//
// Lookups never fail from the caller's point of view: an unconfigured base
// URL, a timeout, a non-2xx status or an unreadable body all yield a nil
// *Response, which callers treat as "no regulations available".
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recyclens/rag-service/internal/observability"
)

// DefaultTimeout bounds a whole lookup, including connection setup.
const DefaultTimeout = 30 * time.Second

// Request is a regulations lookup.
type Request struct {
	Material  string `json:"material"`
	Location  string `json:"location"`
	Condition string `json:"condition,omitempty"`
	Context   string `json:"context,omitempty"`
}

// Response is the service's answer. Sources lists where Regulations came from.
type Response struct {
	Regulations string   `json:"regulations"`
	Sources     []string `json:"sources"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *observability.Logger
}

// Client calls the regulations service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *observability.Logger
}

// New creates a client. An empty BaseURL produces a client whose lookups
// always return nil.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Configured reports whether the client has a service to call.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Query looks up regulations for req. It returns nil when no answer could be
// obtained; failures are logged, not returned.
func (c *Client) Query(ctx context.Context, req Request) *Response {
	if !c.Configured() {
		c.logger.Debug().Msg("Regulations service URL not configured, skipping lookup")
		return nil
	}

	resp, err := c.query(ctx, req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("material", req.Material).
			Str("location", req.Location).
			Msg("Regulations lookup failed")
		return nil
	}
	return resp
}

func (c *Client) query(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call regulations service: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("regulations service returned %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	return &out, nil
}
