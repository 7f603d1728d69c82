// Package proctorapi is the HTTP client for the proctoring backend.
package proctorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/examguard/internal/adapter/metrics"
	"github.com/pscheid92/examguard/internal/domain"
	"github.com/pscheid92/examguard/internal/platform/retry"
	"github.com/pscheid92/examguard/internal/platform/version"
)

const maxResponseBody = 1 << 20

// Client talks to the proctoring backend. It implements domain.Signaler,
// domain.WarningFeed, domain.CaptureFeed and domain.ExamBackend.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.FeedMetrics

	warningBreaker circuitbreaker.CircuitBreaker[any]
	captureBreaker circuitbreaker.CircuitBreaker[any]

	readPolicy retry.Policy
}

var (
	_ domain.Signaler    = (*Client)(nil)
	_ domain.WarningFeed = (*Client)(nil)
	_ domain.CaptureFeed = (*Client)(nil)
	_ domain.ExamBackend = (*Client)(nil)
)

// NewClient creates a client for baseURL. timeout bounds every single request.
func NewClient(baseURL string, timeout time.Duration, m *metrics.FeedMetrics) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		metrics:        m,
		warningBreaker: newFeedBreaker(feedWarning, m),
		captureBreaker: newFeedBreaker(feedCapture, m),
		readPolicy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   250 * time.Millisecond,
			RateLimitBackoff: 2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Backend read failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// classifyFor decides whether a failed read is worth another attempt.
func classifyFor(ctx context.Context) retry.Classify {
	return func(err error) retry.Action {
		if ctx.Err() != nil {
			return retry.Stop
		}
		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) {
			switch {
			case statusErr.Status == http.StatusTooManyRequests:
				return retry.After
			case statusErr.Status >= 500:
				return retry.Retry
			default:
				return retry.Stop
			}
		}
		return retry.Retry
	}
}
