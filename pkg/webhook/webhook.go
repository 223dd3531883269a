package webhook

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

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

const (
	EventHeader    = "X-Notifykit-Event"
	DeliveryHeader = "X-Notifykit-Delivery"
)

// Sender posts JSON events to subscriber URLs with retries.
type Sender struct {
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    Backoff
	secret     string
	logger     *slog.Logger
	now        func() time.Time
}

// NewSender creates a Sender with a pooled HTTP client, three retries and
// exponential backoff.
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		client: &http.Client{Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}},
		timeout:    10 * time.Second,
		maxRetries: 3,
		backoff:    ExponentialBackoff{Initial: time.Second, Max: 30 * time.Second, Jitter: 0.1},
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send marshals data and POSTs it to target. 4xx responses other than 408,
// 425 and 429 are permanent and not retried.
func (s *Sender) Send(ctx context.Context, target, event string, data any) error {
	if err := validateURL(target); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	deliveryID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(ErrDeliveryFailed, ctx.Err())
			case <-time.After(s.backoff.Delay(attempt)):
			}
		}

		status, err := s.attempt(ctx, target, event, deliveryID, payload)
		if err == nil {
			return nil
		}
		lastErr = err

		s.logger.LogAttrs(ctx, slog.LevelDebug, "webhook attempt failed",
			slog.String("url", target),
			slog.Int("attempt", attempt+1),
			slog.Int("status", status),
			logger.Error(err),
		)
		if isPermanent(status) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, s.maxRetries+1, lastErr)
}

func (s *Sender) attempt(ctx context.Context, target, event, deliveryID string, payload []byte) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "notifykit-webhook/1.0")
	req.Header.Set(EventHeader, event)
	req.Header.Set(DeliveryHeader, deliveryID)
	if s.secret != "" {
		req.Header.Set(SignatureHeader, Sign(s.secret, payload, s.now()))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	return resp.StatusCode, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, msg)
}

func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}

func validateURL(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
