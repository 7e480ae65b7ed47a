// Package editor posts navigation intents to an external editor's
// callback endpoint. It implements the engine's Navigator capability.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// MaxRetries bounds attempts per intent after the first.
const MaxRetries = 3

// Client communicates with the editor callback HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for the editor callback at baseURL. apiKey
// may be empty if the editor endpoint is unauthenticated.
func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type jumpRequest struct {
	Offset int `json:"offset"`
}

// JumpTo emits a jump-to-offset intent. Navigation is fire-and-forget:
// delivery runs in the background with bounded retries, and failures are
// logged but never surfaced to the outline engine.
func (c *Client) JumpTo(offset int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		var err error
		for attempt := 0; ; attempt++ {
			err = c.postJump(ctx, offset)
			if err == nil {
				return
			}
			if attempt >= MaxRetries {
				break
			}
			select {
			case <-ctx.Done():
				c.log.Warn("navigation intent dropped", "offset", offset, "error", ctx.Err())
				return
			case <-time.After(backoff(attempt)):
			}
		}
		c.log.Warn("navigation intent dropped", "offset", offset, "error", err)
	}()
}

func (c *Client) postJump(ctx context.Context, offset int) error {
	body, err := json.Marshal(jumpRequest{Offset: offset})
	if err != nil {
		return fmt.Errorf("marshal jump: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jump", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post jump: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post jump: status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Close releases any resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
