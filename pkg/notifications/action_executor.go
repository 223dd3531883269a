package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

const (
	DefaultActionTimeout = 15 * time.Second
	DefaultActionBaseURL = "http://localhost:5001"

	maxActionResponse = 1 << 20
)

// Action result types.
const (
	ResultAPICall  = "api_call"
	ResultRedirect = "redirect"
	ResultForm     = "form"
	ResultButton   = "button"
)

// AuthContext carries the caller's credentials for relative api_call
// actions. BaseURL overrides the executor's base for this call.
type AuthContext struct {
	Cookie  string
	BaseURL string
}

// ActionExecutor runs actions attached to notifications.
type ActionExecutor struct {
	store   Storage
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

type ActionExecutorOption func(*ActionExecutor)

func WithActionHTTPClient(c *http.Client) ActionExecutorOption {
	return func(e *ActionExecutor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithActionBaseURL sets the address relative action URLs resolve against.
func WithActionBaseURL(u string) ActionExecutorOption {
	return func(e *ActionExecutor) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithActionTimeout(d time.Duration) ActionExecutorOption {
	return func(e *ActionExecutor) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

func WithActionLogger(log *slog.Logger) ActionExecutorOption {
	return func(e *ActionExecutor) {
		if log != nil {
			e.logger = log
		}
	}
}

func NewActionExecutor(store Storage, opts ...ActionExecutorOption) *ActionExecutor {
	e := &ActionExecutor{
		store:   store,
		client:  &http.Client{Timeout: DefaultActionTimeout},
		baseURL: DefaultActionBaseURL,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the action actionID of the recipient's notification. Only
// api_call actions have side effects; their result replaces the stored
// ActionResult.
func (e *ActionExecutor) Execute(ctx context.Context, notificationID, actionID, recipientID string, data map[string]any, auth *AuthContext) (*ActionResult, error) {
	n, err := e.store.GetForRecipient(ctx, notificationID, recipientID)
	if err != nil {
		return nil, err
	}
	action, ok := n.Action(actionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, actionID)
	}

	res := ActionResult{Success: true, ExecutedAt: e.now()}
	switch action.Type {
	case templates.ActionAPICall:
		res.Type = ResultAPICall
		res.StatusCode, res.Data, err = e.call(ctx, action, data, auth)
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "notification action failed",
				logger.NotificationID(n.ID),
				slog.String("action_id", action.ID),
				logger.Error(err),
			)
			return nil, err
		}
		if err := e.store.UpdateActionResult(ctx, n.ID, res); err != nil {
			return nil, err
		}
	case templates.ActionLink:
		res.Type = ResultRedirect
		res.URL = action.URL
	case templates.ActionForm:
		res.Type = ResultForm
		res.Action = &action
	default:
		res.Type = ResultButton
		res.Action = &action
	}
	return &res, nil
}

func (e *ActionExecutor) call(ctx context.Context, action templates.Action, data map[string]any, auth *AuthContext) (int, any, error) {
	target := action.URL
	if strings.HasPrefix(target, "/") {
		base := e.baseURL
		if auth != nil && auth.BaseURL != "" {
			base = strings.TrimRight(auth.BaseURL, "/")
		}
		target = base + target
	}

	method := strings.ToUpper(action.Method)
	if method == "" {
		method = http.MethodPost
	}

	body := requestBody(action.Payload, data)
	var reader io.Reader
	if len(body) > 0 && method != http.MethodGet {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: encode body: %w", ErrActionFailed, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrActionFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil && auth.Cookie != "" && strings.HasPrefix(action.URL, "/") {
		req.Header.Set("Cookie", auth.Cookie)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrActionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxActionResponse))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %w", ErrActionFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil, fmt.Errorf("%w: %s %s returned %d", ErrActionFailed, method, action.URL, resp.StatusCode)
	}

	var decoded any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) != nil {
		decoded = string(raw)
	}
	return resp.StatusCode, decoded, nil
}

// requestBody merges the action payload with caller data; data wins.
func requestBody(payload any, data map[string]any) map[string]any {
	body := map[string]any{}
	if m, ok := mongox.AsMap(payload); ok {
		maps.Copy(body, m)
	}
	maps.Copy(body, data)
	return body
}
