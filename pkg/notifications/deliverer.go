package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/push"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
	"github.com/dmitrymomot/notifykit/pkg/sms"
)

// Deliverer sends a rendered notification through one channel. The
// notification is shared with other channels and must not be modified.
// Returning ErrSkipped marks the channel as skipped rather than failed.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, n Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// InAppDeliverer does nothing: the stored record is the in-app delivery.
type InAppDeliverer struct{}

func (InAppDeliverer) Deliver(context.Context, Notification) error { return nil }

// DelivererOption configures the contact-based deliverers.
type DelivererOption func(*delivererBase)

type delivererBase struct {
	contacts Contacts
	logger   *slog.Logger
}

func WithDelivererLogger(log *slog.Logger) DelivererOption {
	return func(b *delivererBase) {
		if log != nil {
			b.logger = log
		}
	}
}

func newBase(contacts Contacts, opts []DelivererOption) delivererBase {
	b := delivererBase{contacts: contacts, logger: logger.Discard()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b delivererBase) contact(ctx context.Context, n Notification) (Contact, error) {
	if b.contacts == nil {
		return Contact{}, nil
	}
	return b.contacts.Resolve(ctx, n.RecipientModel, n.Recipient)
}

func plainText(s string) string {
	return sanitizer.NormalizeWhitespace(sanitizer.StripHTML(s))
}

func subjectOf(n Notification) string {
	if n.Title != "" {
		return n.Title
	}
	return "Notification"
}

// EmailDeliverer sends the notification to the recipient's email address
// with the message as HTML and a markup-free text part.
type EmailDeliverer struct {
	delivererBase
	sender email.EmailSender
}

func NewEmailDeliverer(sender email.EmailSender, contacts Contacts, opts ...DelivererOption) *EmailDeliverer {
	return &EmailDeliverer{delivererBase: newBase(contacts, opts), sender: sender}
}

func (d *EmailDeliverer) Deliver(ctx context.Context, n Notification) error {
	c, err := d.contact(ctx, n)
	if err != nil {
		return err
	}
	if c.Email == "" {
		return ErrSkipped
	}

	tag := n.Type
	if n.Template != nil && n.Template.Name != "" {
		tag = n.Template.Name
	}

	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   c.Email,
		Subject:  subjectOf(n),
		BodyHTML: n.Message,
		BodyText: plainText(n.Message),
		Tag:      tag,
		Metadata: map[string]string{"notificationId": n.ID},
	})
}

// PushDeliverer sends the notification to the recipient's device with the
// navigation embedded so the client can route without another request.
type PushDeliverer struct {
	delivererBase
	sender     push.Sender
	navigation NavigationBuilder
}

func NewPushDeliverer(sender push.Sender, contacts Contacts, nav NavigationBuilder, opts ...DelivererOption) *PushDeliverer {
	return &PushDeliverer{delivererBase: newBase(contacts, opts), sender: sender, navigation: nav}
}

func (d *PushDeliverer) Deliver(ctx context.Context, n Notification) error {
	c, err := d.contact(ctx, n)
	if err != nil {
		return err
	}
	if c.PushToken == "" {
		return ErrSkipped
	}
	if !push.IsExpoToken(c.PushToken) {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "recipient has an invalid push token",
			logger.NotificationID(n.ID),
			logger.RecipientID(n.Recipient, n.RecipientModel),
		)
		return ErrSkipped
	}

	tickets, err := d.sender.Send(ctx, d.Message(n, c.PushToken))
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if !t.OK() {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "push provider rejected notification",
				logger.NotificationID(n.ID),
				logger.RecipientID(n.Recipient, n.RecipientModel),
				slog.String("code", t.ErrorCode()),
				slog.String("reason", t.Message),
			)
		}
	}
	return nil
}

// Message builds the push payload for n addressed to token.
func (d *PushDeliverer) Message(n Notification, token string) push.Message {
	typ := n.Type
	if typ == "" {
		typ = "system"
	}

	data := map[string]any{
		"notificationId": n.ID,
		"type":           typ,
		"navigation":     d.navigation.Build(n),
	}
	maps.Copy(data, n.Metadata)
	if len(n.Actions) > 0 {
		data["actions"] = n.Actions
	}

	msg := push.Message{
		To:       token,
		Title:    subjectOf(n),
		Body:     plainText(n.Message),
		Data:     data,
		Sound:    "default",
		Priority: push.PriorityDefault,
	}
	if n.Priority == PriorityHigh || n.Priority == PriorityUrgent {
		badge := 1
		msg.Badge = &badge
	}
	if n.Priority == PriorityUrgent {
		msg.Priority = push.PriorityHigh
	}
	return msg
}

// SMSDeliverer texts the title and plain-text message to the recipient's
// phone number.
type SMSDeliverer struct {
	delivererBase
	sender sms.Sender
}

func NewSMSDeliverer(sender sms.Sender, contacts Contacts, opts ...DelivererOption) *SMSDeliverer {
	return &SMSDeliverer{delivererBase: newBase(contacts, opts), sender: sender}
}

func (d *SMSDeliverer) Deliver(ctx context.Context, n Notification) error {
	c, err := d.contact(ctx, n)
	if err != nil {
		return err
	}
	if c.Phone == "" {
		return ErrSkipped
	}
	return d.sender.SendSMS(ctx, sms.SendSMSParams{
		To:      c.Phone,
		Message: fmt.Sprintf("%s\n%s", subjectOf(n), plainText(n.Message)),
	})
}

// WebhookEventCreated is the event name posted by WebhookDeliverer.
const WebhookEventCreated = "notification.created"

// WebhookSender posts a JSON event to a URL. *webhook.Sender implements it.
type WebhookSender interface {
	Send(ctx context.Context, target, event string, data any) error
}

// WebhookEvent is the body posted to recipient webhooks.
type WebhookEvent struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Recipient      string         `json:"recipient"`
	RecipientModel string         `json:"recipientModel"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Priority       Priority       `json:"priority"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Navigation     Navigation     `json:"navigation"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// WebhookDeliverer posts a signed event to the recipient's webhook URL.
type WebhookDeliverer struct {
	delivererBase
	sender     WebhookSender
	navigation NavigationBuilder
}

func NewWebhookDeliverer(sender WebhookSender, contacts Contacts, nav NavigationBuilder, opts ...DelivererOption) *WebhookDeliverer {
	return &WebhookDeliverer{delivererBase: newBase(contacts, opts), sender: sender, navigation: nav}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, n Notification) error {
	c, err := d.contact(ctx, n)
	if err != nil {
		return err
	}
	if c.WebhookURL == "" {
		return ErrSkipped
	}
	return d.sender.Send(ctx, c.WebhookURL, WebhookEventCreated, WebhookEvent{
		ID:             n.ID,
		Type:           n.Type,
		Recipient:      n.Recipient,
		RecipientModel: n.RecipientModel,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       n.Priority,
		Metadata:       n.Metadata,
		Navigation:     d.navigation.Build(n),
		CreatedAt:      n.CreatedAt,
	})
}
