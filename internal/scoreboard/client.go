// Package scoreboard delivers captured voice commands to the scoring backend.
package scoreboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	transcriptPath = "/api/voice/transcript"
	healthPath     = "/health"
)

// Client posts transcripts to the scoring backend over HTTP.
type Client struct {
	baseURL string
	matchID int
	http    *http.Client
	logger  *slog.Logger
}

// New builds a backend client. A zero matchID posts transcripts without
// a match binding. A nil logger disables client logging.
func New(baseURL string, matchID int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		matchID: matchID,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type transcriptRequest struct {
	MatchID    int    `json:"match_id,omitempty"`
	Transcript string `json:"transcript"`
}

// Emit posts one captured command. Delivery failures are logged, not
// returned: the recognition loop must keep running when the backend is down.
func (c *Client) Emit(ctx context.Context, transcript string) {
	if err := c.PostTranscript(ctx, transcript); err != nil {
		if c.logger != nil {
			c.logger.Warn("transcript delivery failed", "error", err.Error())
		}
	}
}

// PostTranscript submits one transcript to the backend.
func (c *Client) PostTranscript(ctx context.Context, transcript string) error {
	payload, err := json.Marshal(transcriptRequest{MatchID: c.matchID, Transcript: transcript})
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcriptPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post transcript: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post transcript: backend returned %s", resp.Status)
	}
	if c.logger != nil {
		c.logger.Info("transcript delivered", "transcript", transcript)
	}
	return nil
}

// Healthy probes the backend health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe backend health: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health returned %s", resp.Status)
	}
	return nil
}
