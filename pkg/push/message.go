package push

import (
	"fmt"
	"strings"
)

// Priority values understood by Expo.
const (
	PriorityDefault = "default"
	PriorityNormal  = "normal"
	PriorityHigh    = "high"
)

// Message is one push notification.
type Message struct {
	To       string         `json:"to"`
	Title    string         `json:"title,omitempty"`
	Body     string         `json:"body,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Badge    *int           `json:"badge,omitempty"`
	Priority string         `json:"priority,omitempty"`
	Sound    string         `json:"sound,omitempty"`
}

// Validate checks the token shape and that something is displayed.
func (m Message) Validate() error {
	if !IsExpoToken(m.To) {
		return fmt.Errorf("%w: %q is not an Expo push token", ErrInvalidMessage, m.To)
	}
	if m.Title == "" && m.Body == "" {
		return fmt.Errorf("%w: title or body is required", ErrInvalidMessage)
	}
	return nil
}

// Ticket is Expo's per-message response.
type Ticket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// OK reports whether Expo accepted the message.
func (t Ticket) OK() bool {
	return t.Status == "ok"
}

// ErrorCode returns details.error, e.g. "DeviceNotRegistered".
func (t Ticket) ErrorCode() string {
	if code, ok := t.Details["error"].(string); ok {
		return code
	}
	return ""
}

// IsExpoToken reports whether token looks like ExponentPushToken[...] or
// ExpoPushToken[...].
func IsExpoToken(token string) bool {
	for _, prefix := range []string{"ExponentPushToken[", "ExpoPushToken["} {
		if strings.HasPrefix(token, prefix) && strings.HasSuffix(token, "]") && len(token) > len(prefix)+1 {
			return true
		}
	}
	return false
}
