// Package clients holds the HTTP clients for peer services. Every call
// carries the shared gateway key, runs under a bounded timeout, and
// retries transient failures with a capped doubling delay.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrPeerService marks a non-success response from a peer service. It is
// transient from the caller's point of view: webhook and queue deliveries
// that hit it are redelivered.
var ErrPeerService = errors.New("peer service error")

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
	maxAttempts       = 3
)

type baseClient struct {
	baseURL    string
	gatewayKey string
	http       *http.Client
}

func newBaseClient(baseURL, gatewayKey string, timeout time.Duration) baseClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return baseClient{
		baseURL:    baseURL,
		gatewayKey: gatewayKey,
		http:       &http.Client{Timeout: timeout},
	}
}

// do sends one JSON request and retries on network errors and 5xx
// responses until the attempts run out or the context ends.
func (c baseClient) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = data
	}

	requestID := uuid.NewString()
	retryDelay := defaultRetryDelay
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(retryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
			if retryDelay < maxRetryDelay {
				retryDelay *= 2
				if retryDelay > maxRetryDelay {
					retryDelay = maxRetryDelay
				}
			}
		}

		resp, err := c.send(ctx, method, path, payload, requestID)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// 4xx responses are not retryable; the peer has made a decision.
		var pe *peerError
		if errors.As(err, &pe) && pe.status < http.StatusInternalServerError {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c baseClient) send(ctx context.Context, method, path string, payload []byte, requestID string) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("x-api-key", c.gatewayKey)
	req.Header.Set("x-request-id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerService, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerService, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &peerError{status: resp.StatusCode, path: path}
	}
	return data, nil
}

type peerError struct {
	status int
	path   string
}

func (e *peerError) Error() string {
	return fmt.Sprintf("peer service error: %s returned %d", e.path, e.status)
}

func (e *peerError) Unwrap() error { return ErrPeerService }
