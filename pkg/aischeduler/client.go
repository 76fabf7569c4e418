package aischeduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/pkg/config"
	appErrors "github.com/shiftwise/shiftwise-api/pkg/errors"
)

const generatePath = "/ai/schedule/generate"

// Client talks to the opaque remote scheduling service. Retry policy lives
// here, in the collaborator: a bounded exponential backoff with an explicit
// attempt cap. Callers never retry on top of this.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	logger      *zap.Logger
}

// New builds a Client from config.
func New(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := cfg.BackoffBase
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxAttempts: maxAttempts,
		backoffBase: backoff,
		logger:      logger,
	}
}

// Submit posts a compiled schedule request and returns the raw response
// envelope. The envelope shape is deliberately undecoded here; normalisation
// is the caller's concern.
func (c *Client) Submit(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule request")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoffBase << (attempt - 2)
			c.logger.Sugar().Warnw("retrying schedule submission", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "schedule submission cancelled")
			case <-time.After(delay):
			}
		}

		raw, retryable, err := c.post(ctx, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "remote scheduling service unavailable")
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("remote returned %d: %s", resp.StatusCode, truncate(raw, 256))
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("remote rejected request with %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	return json.RawMessage(raw), false, nil
}

func truncate(raw []byte, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit]) + "..."
}
