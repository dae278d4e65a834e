// Package registry announces this server to an agent orchestrator.
// Registration is advisory: the server works without an orchestrator,
// so failures here are logged and never fatal.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxAttempts    = 3
)

// var so tests can shorten the backoff.
var retryDelay = 2 * time.Second

// Registration is the announcement payload.
type Registration struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Address string   `json:"address"`
	Tools   []string `json:"tools"`
}

// Client registers this server with an orchestrator over HTTP.
type Client struct {
	url  string
	http *http.Client
	log  *slog.Logger
}

// New creates a registry client. An empty URL yields a nil client;
// calling Register on a nil client is a no-op.
func New(url string, log *slog.Logger) *Client {
	if url == "" {
		return nil
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: defaultTimeout},
		log:  log,
	}
}

// Register announces the server, retrying transient failures a few
// times. The last error is returned so callers can log it; they should
// not treat it as fatal.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	if c == nil {
		return nil
	}

	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encoding registration: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		lastErr = c.post(ctx, payload)
		if lastErr == nil {
			c.log.Info("registered with orchestrator", "url", c.url, "name", reg.Name)
			return nil
		}
		c.log.Warn("registration attempt failed", "attempt", attempt, "error", lastErr)
	}
	return fmt.Errorf("registration failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("orchestrator returned %s", resp.Status)
	}
	return nil
}
