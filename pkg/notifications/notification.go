package notifications

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/templates"
	"github.com/dmitrymomot/notifykit/pkg/validator"
)

// Status is the recipient-facing lifecycle state.
type Status string

const (
	StatusUnread       Status = "unread"
	StatusRead         Status = "read"
	StatusAcknowledged Status = "acknowledged"
	StatusArchived     Status = "archived"
)

// DeliveryStatus tracks dispatch of a notification to its channels.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

func (p Priority) valid() bool { return slices.Contains(priorities, p) }

// Channel is a delivery medium.
type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelPush    Channel = "push"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

// Channels converts channel names to Channel values, dropping blanks and
// duplicates while keeping order.
func Channels(names ...string) []Channel {
	out := make([]Channel, 0, len(names))
	for _, n := range names {
		c := Channel(strings.TrimSpace(n))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ChannelOutcome is the result of one channel during a dispatch.
type ChannelOutcome string

const (
	OutcomeDelivered ChannelOutcome = "delivered"
	OutcomeSkipped   ChannelOutcome = "skipped"
	OutcomeFailed    ChannelOutcome = "failed"
)

// ChannelResult records how a channel fared in the last dispatch.
type ChannelResult struct {
	Channel  Channel        `json:"channel" bson:"channel"`
	Outcome  ChannelOutcome `json:"outcome" bson:"outcome"`
	Error    string         `json:"error,omitempty" bson:"error,omitempty"`
	Duration time.Duration  `json:"duration" bson:"duration"`
	At       time.Time      `json:"at" bson:"at"`
}

// ActionResult is the outcome of the most recently executed action.
type ActionResult struct {
	Type       string            `json:"type" bson:"type"`
	Success    bool              `json:"success" bson:"success"`
	StatusCode int               `json:"statusCode,omitempty" bson:"statusCode,omitempty"`
	URL        string            `json:"url,omitempty" bson:"url,omitempty"`
	Action     *templates.Action `json:"action,omitempty" bson:"action,omitempty"`
	Data       any               `json:"data,omitempty" bson:"data,omitempty"`
	ExecutedAt time.Time         `json:"executedAt" bson:"executedAt"`
}

// Notification is the persisted unit of delivery.
type Notification struct {
	ID                  string              `json:"id" bson:"_id"`
	Recipient           string              `json:"recipient" bson:"recipient"`
	RecipientModel      string              `json:"recipientModel" bson:"recipientModel"`
	Sender              string              `json:"sender,omitempty" bson:"sender,omitempty"`
	SenderModel         string              `json:"senderModel,omitempty" bson:"senderModel,omitempty"`
	Type                string              `json:"type" bson:"type"`
	Title               string              `json:"title" bson:"title"`
	Message             string              `json:"message" bson:"message"`
	Template            *templates.Snapshot `json:"template,omitempty" bson:"template,omitempty"`
	Actions             []templates.Action  `json:"actions,omitempty" bson:"actions,omitempty"`
	Priority            Priority            `json:"priority" bson:"priority"`
	Channels            []Channel           `json:"channels" bson:"channels"`
	Metadata            map[string]any      `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Status              Status              `json:"status" bson:"status"`
	DeliveryStatus      DeliveryStatus      `json:"deliveryStatus" bson:"deliveryStatus"`
	DeliveryAttempts    int                 `json:"deliveryAttempts" bson:"deliveryAttempts"`
	LastDeliveryAttempt *time.Time          `json:"lastDeliveryAttempt,omitempty" bson:"lastDeliveryAttempt,omitempty"`
	ChannelResults      []ChannelResult     `json:"channelResults,omitempty" bson:"channelResults,omitempty"`
	ScheduledFor        *time.Time          `json:"scheduledFor,omitempty" bson:"scheduledFor,omitempty"`
	ReadAt              *time.Time          `json:"readAt,omitempty" bson:"readAt,omitempty"`
	AcknowledgedAt      *time.Time          `json:"acknowledgedAt,omitempty" bson:"acknowledgedAt,omitempty"`
	ArchivedAt          *time.Time          `json:"archivedAt,omitempty" bson:"archivedAt,omitempty"`
	DeletedAt           *time.Time          `json:"-" bson:"deletedAt,omitempty"`
	ExpiresAt           *time.Time          `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	ActionResult        *ActionResult       `json:"actionResult,omitempty" bson:"actionResult,omitempty"`
	CreatedAt           time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the fields a caller must supply.
func (n *Notification) Validate() error {
	rules := []validator.Rule{
		validator.Required("recipient", n.Recipient),
		validator.Required("title", n.Title),
		validator.Required("message", n.Message),
	}
	if n.Priority != "" {
		rules = append(rules, validator.InList("priority", n.Priority, priorities))
	}
	if err := validator.Apply(rules...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNotification, err)
	}
	return nil
}

// normalize fills identifiers, timestamps and defaults on a new record.
func (n *Notification) normalize(now time.Time) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.RecipientModel == "" {
		n.RecipientModel = "User"
	}
	if n.Type == "" {
		n.Type = templates.DefaultType
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if len(n.Channels) == 0 {
		n.Channels = []Channel{ChannelInApp}
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = DeliveryPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
}

// Transition moves the notification to status to. It reports whether the
// record changed. Same-status requests and read on an acknowledged record
// are no-ops; nothing leaves archived and nothing returns to unread.
func (n *Notification) Transition(to Status, at time.Time) (bool, error) {
	if n.Status == to {
		return false, nil
	}
	if n.Status == StatusArchived {
		return false, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, StatusArchived)
	}

	switch to {
	case StatusRead:
		if n.Status == StatusAcknowledged {
			return false, nil
		}
		n.ReadAt = &at
	case StatusAcknowledged:
		if n.ReadAt == nil {
			n.ReadAt = &at
		}
		n.AcknowledgedAt = &at
	case StatusArchived:
		n.ArchivedAt = &at
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.Status, to)
	}

	n.Status = to
	n.UpdatedAt = at
	return true, nil
}

// IsDue reports whether the notification may be dispatched at now.
func (n *Notification) IsDue(now time.Time) bool {
	return n.ScheduledFor == nil || !n.ScheduledFor.After(now)
}

func (n *Notification) IsDeleted() bool {
	return n.DeletedAt != nil
}

// IsExpired reports whether the notification has passed its expiry.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// Action returns the action with the given id.
func (n *Notification) Action(id string) (templates.Action, bool) {
	for _, a := range n.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return templates.Action{}, false
}

// HasChannel reports whether c is among the notification's channels.
func (n *Notification) HasChannel(c Channel) bool {
	return slices.Contains(n.Channels, c)
}
