package outreach

import (
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// MessageStatus of an outreach message.
type MessageStatus string

const (
	StatusDraft MessageStatus = "draft"
	StatusSent  MessageStatus = "sent"
)

// EmailStatus of a receipt.
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
	EmailBounced EmailStatus = "bounced"
)

// Audience is a saved, reusable recipient filter.
type Audience struct {
	ID          string          `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description" bson:"description"`
	Filter      audience.Filter `json:"filterDefinition" bson:"filterDefinition"`
	CreatedBy   string          `json:"createdBy" bson:"createdBy"`
	Metadata    map[string]any  `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Message is an operator-authored bulk message. It targets either a saved
// audience or an inline filter and is sent at most once.
type Message struct {
	ID         string                  `json:"id" bson:"_id"`
	Title      string                  `json:"title" bson:"title"`
	Subject    string                  `json:"subject" bson:"subject"`
	Body       string                  `json:"body" bson:"body"`
	Channels   []notifications.Channel `json:"channels" bson:"channels"`
	AudienceID string                  `json:"audienceId,omitempty" bson:"audienceId,omitempty"`
	Filter     *audience.Filter        `json:"filterDefinition,omitempty" bson:"filterDefinition,omitempty"`
	CreatedBy  string                  `json:"createdBy" bson:"createdBy"`
	Status     MessageStatus           `json:"status" bson:"status"`
	SentAt     *time.Time              `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	Metadata   map[string]any          `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt" bson:"updatedAt"`
}

func (m *Message) hasChannel(c notifications.Channel) bool {
	return slices.Contains(m.Channels, c)
}

// Receipt is the per-recipient delivery and engagement record of a sent
// message. One exists per (MessageID, UserID).
type Receipt struct {
	ID           string      `json:"id" bson:"_id"`
	MessageID    string      `json:"messageId" bson:"messageId"`
	UserID       string      `json:"userId" bson:"userId"`
	EmailPlanned bool        `json:"emailPlanned" bson:"emailPlanned"`
	EmailStatus  EmailStatus `json:"emailStatus" bson:"emailStatus"`
	EmailSentAt  *time.Time  `json:"emailSentAt,omitempty" bson:"emailSentAt,omitempty"`
	SeenAt       *time.Time  `json:"seenAt,omitempty" bson:"seenAt,omitempty"`
	OpenedAt     *time.Time  `json:"openedAt,omitempty" bson:"openedAt,omitempty"`
	ClickedAt    *time.Time  `json:"clickedAt,omitempty" bson:"clickedAt,omitempty"`
	ClickCount   int         `json:"clickCount" bson:"clickCount"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// ReceiptStats are raw receipt counts for one message.
type ReceiptStats struct {
	Total     int64 `json:"total" bson:"total"`
	EmailSent int64 `json:"emailSent" bson:"emailSent"`
	Opened    int64 `json:"opened" bson:"opened"`
	Seen      int64 `json:"seen" bson:"seen"`
	Clicked   int64 `json:"clicked" bson:"clicked"`
}

// Analytics summarises engagement with a sent message.
type Analytics struct {
	MessageID string `json:"messageId"`
	ReceiptStats
	OpenRate  float64    `json:"openRate"`
	ClickRate float64    `json:"clickRate"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

// SendResult reports the effect of SendMessage.
type SendResult struct {
	Sent     int   `json:"sent"`
	Total    int64 `json:"total"`
	Receipts int   `json:"receipts"`
}

// InboxItem is a sent message as seen by one recipient.
type InboxItem struct {
	MessageID string     `json:"messageId"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	SeenAt    *time.Time `json:"seenAt,omitempty"`
	OpenedAt  *time.Time `json:"openedAt,omitempty"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ReceiptEvent is a tracking event recorded against a receipt.
type ReceiptEvent string

const (
	EventSeen   ReceiptEvent = "seen"
	EventOpened ReceiptEvent = "opened"
	EventClick  ReceiptEvent = "click"
)

// apply stamps the event on r. Timestamps are set once; clicks always
// increment the counter. Opening implies seeing.
func (e ReceiptEvent) apply(r *Receipt, at time.Time) {
	stamp := func(p **time.Time) {
		if *p == nil {
			t := at
			*p = &t
		}
	}
	switch e {
	case EventSeen:
		stamp(&r.SeenAt)
	case EventOpened:
		stamp(&r.SeenAt)
		stamp(&r.OpenedAt)
	case EventClick:
		stamp(&r.ClickedAt)
		r.ClickCount++
	}
	r.UpdatedAt = at
}
