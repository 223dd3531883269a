package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Sender sends a batch of push messages.
type Sender interface {
	Send(ctx context.Context, messages ...Message) ([]Ticket, error)
}

// ExpoClient talks to the Expo push endpoint.
type ExpoClient struct {
	url         string
	accessToken string
	client      *http.Client
	logger      *slog.Logger
}

type ExpoOption func(*ExpoClient)

// WithExpoHTTPClient replaces the HTTP client.
func WithExpoHTTPClient(c *http.Client) ExpoOption {
	return func(e *ExpoClient) {
		if c != nil {
			e.client = c
		}
	}
}

func WithExpoLogger(log *slog.Logger) ExpoOption {
	return func(e *ExpoClient) {
		if log != nil {
			e.logger = log
		}
	}
}

// NewExpoClient builds a client from cfg.
func NewExpoClient(cfg Config, opts ...ExpoOption) *ExpoClient {
	c := &ExpoClient{
		url:         cfg.URL,
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logger.Discard(),
	}
	if c.url == "" {
		c.url = "https://exp.host/--/api/v2/push/send"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type expoResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send validates and posts messages in a single request. Tickets are
// returned in message order.
func (c *ExpoClient) Send(ctx context.Context, messages ...Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return nil, nil
	}
	for _, m := range messages {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(messages)
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: expo returned %d: %s", ErrSendFailed, resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out expoResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrSendFailed, out.Errors[0].Code, out.Errors[0].Message)
	}

	for _, t := range out.Data {
		if !t.OK() {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "push ticket rejected",
				slog.String("code", t.ErrorCode()),
				slog.String("message", t.Message),
			)
		}
	}
	return out.Data, nil
}
