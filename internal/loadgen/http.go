package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/types"
)

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 4 << 20

// client wraps http.Client with the service routes.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type submitResult int

const (
	submitAccepted submitResult = iota
	submitRejected
	submitThrottled
	submitFailed
)

func (c *client) submit(ctx context.Context, s Submission) submitResult {
	body, err := json.Marshal(s)
	if err != nil {
		return submitFailed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit-score", bytes.NewReader(body))
	if err != nil {
		return submitFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return submitFailed
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	switch {
	case resp.StatusCode == http.StatusOK:
		return submitAccepted
	case resp.StatusCode == http.StatusTooManyRequests:
		return submitThrottled
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return submitRejected
	default:
		return submitFailed
	}
}

func (c *client) health(ctx context.Context) error {
	var out types.HealthResponse
	return c.getJSON(ctx, "/healthz", &out)
}

func (c *client) scoreCount(ctx context.Context) (int, error) {
	var out types.MetricsResponse
	if err := c.getJSON(ctx, "/metrics", &out); err != nil {
		return 0, err
	}
	return out.ScoreCount, nil
}

func (c *client) topScores(ctx context.Context, limit int) ([]model.Score, error) {
	var out types.ScoresResponse
	if err := c.getJSON(ctx, "/api/scores?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out.Scores, nil
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
