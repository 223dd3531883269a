package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
	"github.com/dmitrymomot/notifykit/pkg/templates"
	"github.com/dmitrymomot/notifykit/pkg/validator"
)

const (
	DefaultRecipientCap  = 50000
	DefaultBatchSize     = 100
	BodyPreviewLength    = 200
	DefaultPageLimit     = 20
	MaxPageLimit         = 50
	MaxPreviewSample     = 20
	maxNameLength        = 200
	maxDescriptionLength = 1000
	maxTitleLength       = 300
)

// Notifier stores and dispatches the per-recipient notifications of a send.
type Notifier interface {
	InsertBatch(ctx context.Context, ns []notifications.Notification) ([]notifications.Notification, error)
	DispatchByID(ctx context.Context, id string) (*notifications.Notification, error)
}

// Service manages audiences and outreach messages and runs the send
// pipeline.
type Service struct {
	store        Storage
	resolver     audience.Resolver
	notifier     Notifier
	logger       *slog.Logger
	now          func() time.Time
	recipientCap int
	batchSize    int
}

type ServiceOption func(*Service)

// WithRecipientCap bounds how many recipients one send resolves.
func WithRecipientCap(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.recipientCap = n
		}
	}
}

// WithBatchSize sets how many notifications are inserted per batch.
func WithBatchSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Storage, resolver audience.Resolver, notifier Notifier, opts ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		resolver:     resolver,
		notifier:     notifier,
		logger:       logger.Discard(),
		now:          time.Now,
		recipientCap: DefaultRecipientCap,
		batchSize:    DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pagination turns a 1-based page and a limit into skip/limit.
func pagination(page, limit int) (int, int, int) {
	page = max(page, 1)
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = sanitizer.Clamp(limit, 1, MaxPageLimit)
	return page, limit, (page - 1) * limit
}

func newPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// AudienceInput holds the fields of a new audience.
type AudienceInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Filter      audience.Filter `json:"filterDefinition"`
	CreatedBy   string          `json:"-"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// AudienceUpdate changes the non-nil fields of an audience.
type AudienceUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Filter      *audience.Filter `json:"filterDefinition,omitempty"`
}

func validateAudience(a *Audience) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Description = strings.TrimSpace(a.Description)
	if err := validator.Apply(
		validator.Required("name", a.Name),
		validator.MaxLen("name", a.Name, maxNameLength),
		validator.MaxLen("description", a.Description, maxDescriptionLength),
		validator.Required("createdBy", a.CreatedBy),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAudience, err)
	}
	return a.Filter.Validate()
}

func (s *Service) CreateAudience(ctx context.Context, in AudienceInput) (*Audience, error) {
	now := s.now()
	a := Audience{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Filter:      in.Filter,
		CreatedBy:   in.CreatedBy,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateAudience(&a); err != nil {
		return nil, err
	}
	if err := s.store.CreateAudience(ctx, a); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audience created", logger.AudienceID(a.ID))
	return &a, nil
}

func (s *Service) GetAudience(ctx context.Context, id string) (*Audience, error) {
	return s.store.GetAudience(ctx, id)
}

func (s *Service) UpdateAudience(ctx context.Context, id string, upd AudienceUpdate) (*Audience, error) {
	a, err := s.store.GetAudience(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.Filter != nil {
		a.Filter = *upd.Filter
	}
	if err := validateAudience(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.now()
	if err := s.store.UpdateAudience(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAudience removes a saved audience. Messages that reference it can
// no longer be sent.
func (s *Service) DeleteAudience(ctx context.Context, id string) error {
	return s.store.DeleteAudience(ctx, id)
}

// ListAudiences pages through saved audiences, newest first. search matches
// names case-insensitively.
func (s *Service) ListAudiences(ctx context.Context, search string, page, limit int) (Page[Audience], error) {
	page, limit, skip := pagination(page, limit)
	items, total, err := s.store.ListAudiences(ctx, ListQuery{Search: search, Skip: skip, Limit: limit})
	if err != nil {
		return Page[Audience]{}, err
	}
	return newPage(items, page, limit, total), nil
}

// PreviewAudience counts the filter's matches and returns a small sample.
func (s *Service) PreviewAudience(ctx context.Context, f audience.Filter, limit int) (audience.Result, error) {
	if limit <= 0 {
		limit = audience.DefaultPreviewLimit
	}
	return s.resolver.Resolve(ctx, f, audience.Options{Preview: true, Limit: min(limit, MaxPreviewSample)})
}

// MessageInput holds the fields of a new message. Exactly one of AudienceID
// and Filter should be set; AudienceID wins when both are.
type MessageInput struct {
	Title      string                  `json:"title"`
	Subject    string                  `json:"subject"`
	Body       string                  `json:"body"`
	Channels   []notifications.Channel `json:"channels"`
	AudienceID string                  `json:"audienceId"`
	Filter     *audience.Filter        `json:"filterDefinition"`
	CreatedBy  string                  `json:"-"`
	Metadata   map[string]any          `json:"metadata,omitempty"`
}

// MessageUpdate changes the non-nil fields of a draft.
type MessageUpdate struct {
	Title      *string                 `json:"title,omitempty"`
	Subject    *string                 `json:"subject,omitempty"`
	Body       *string                 `json:"body,omitempty"`
	Channels   []notifications.Channel `json:"channels,omitempty"`
	AudienceID *string                 `json:"audienceId,omitempty"`
	Filter     *audience.Filter        `json:"filterDefinition,omitempty"`
}

var messageChannels = []notifications.Channel{
	notifications.ChannelInApp,
	notifications.ChannelEmail,
	notifications.ChannelPush,
	notifications.ChannelSMS,
	notifications.ChannelWebhook,
}

func (s *Service) validateMessage(ctx context.Context, m *Message) error {
	m.Title = strings.TrimSpace(m.Title)
	m.Subject = strings.TrimSpace(m.Subject)
	if m.Subject == "" {
		m.Subject = m.Title
	}

	names := make([]string, len(m.Channels))
	for i, c := range m.Channels {
		names[i] = string(c)
	}
	m.Channels = notifications.Channels(names...)
	if len(m.Channels) == 0 {
		m.Channels = []notifications.Channel{notifications.ChannelInApp}
	}

	if err := validator.Apply(
		validator.Required("title", m.Title),
		validator.MaxLen("title", m.Title, maxTitleLength),
		validator.MaxLen("subject", m.Subject, maxTitleLength),
		validator.Required("body", m.Body),
		validator.Required("createdBy", m.CreatedBy),
		validator.EachInList("channels", m.Channels, messageChannels),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if m.AudienceID != "" {
		m.Filter = nil
		_, err := s.store.GetAudience(ctx, m.AudienceID)
		return err
	}
	if m.Filter == nil {
		return ErrNoAudience
	}
	return m.Filter.Validate()
}

// CreateMessage stores a draft.
func (s *Service) CreateMessage(ctx context.Context, in MessageInput) (*Message, error) {
	now := s.now()
	m := Message{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Subject:    in.Subject,
		Body:       in.Body,
		Channels:   in.Channels,
		AudienceID: strings.TrimSpace(in.AudienceID),
		Filter:     in.Filter,
		CreatedBy:  in.CreatedBy,
		Status:     StatusDraft,
		Metadata:   in.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.validateMessage(ctx, &m); err != nil {
		return nil, err
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "outreach message created", logger.OutreachMessageID(m.ID))
	return &m, nil
}

// UpdateMessage edits a draft. Sent messages are immutable.
func (s *Service) UpdateMessage(ctx context.Context, id string, upd MessageUpdate) (*Message, error) {
	m, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusDraft {
		return nil, ErrNotDraft
	}
	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.Subject != nil {
		m.Subject = *upd.Subject
	}
	if upd.Body != nil {
		m.Body = *upd.Body
	}
	if upd.Channels != nil {
		m.Channels = upd.Channels
	}
	if upd.AudienceID != nil {
		m.AudienceID = strings.TrimSpace(*upd.AudienceID)
	}
	if upd.Filter != nil {
		m.Filter = upd.Filter
		if upd.AudienceID == nil {
			m.AudienceID = ""
		}
	}
	if err := s.validateMessage(ctx, m); err != nil {
		return nil, err
	}
	m.UpdatedAt = s.now()
	if err := s.store.UpdateDraft(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMessage(ctx context.Context, id string) (*Message, error) {
	return s.store.GetMessage(ctx, id)
}

// ListMessages pages through messages, newest first, optionally by status.
func (s *Service) ListMessages(ctx context.Context, status MessageStatus, page, limit int) (Page[Message], error) {
	page, limit, skip := pagination(page, limit)
	items, total, err := s.store.ListMessages(ctx, ListQuery{Status: status, Skip: skip, Limit: limit})
	if err != nil {
		return Page[Message]{}, err
	}
	return newPage(items, page, limit, total), nil
}

func (s *Service) filterFor(ctx context.Context, m *Message) (audience.Filter, error) {
	if m.AudienceID != "" {
		a, err := s.store.GetAudience(ctx, m.AudienceID)
		if err != nil {
			return audience.Filter{}, err
		}
		return a.Filter, nil
	}
	if m.Filter != nil {
		return *m.Filter, nil
	}
	return audience.Filter{}, ErrNoAudience
}

// SendMessage resolves the message audience, writes one receipt per
// recipient and creates and dispatches a notification for each of them in
// batches. A message is sent at most once. An audience with no matches is
// a successful no-op that leaves the message a draft.
func (s *Service) SendMessage(ctx context.Context, id string) (SendResult, error) {
	m, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return SendResult{}, err
	}
	if m.Status == StatusSent {
		return SendResult{}, ErrAlreadySent
	}
	filter, err := s.filterFor(ctx, m)
	if err != nil {
		return SendResult{}, err
	}

	resolved, err := s.resolver.Resolve(ctx, filter, audience.Options{Limit: s.recipientCap})
	if err != nil {
		return SendResult{}, err
	}
	if resolved.Total == 0 || len(resolved.UserIDs) == 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "outreach audience is empty", logger.OutreachMessageID(id))
		return SendResult{}, nil
	}

	now := s.now()
	if m, err = s.store.ClaimSend(ctx, id, now); err != nil {
		return SendResult{}, err
	}
	if len(m.Channels) == 0 {
		m.Channels = []notifications.Channel{notifications.ChannelInApp}
	}

	receipts := make([]Receipt, len(resolved.UserIDs))
	for i, uid := range resolved.UserIDs {
		receipts[i] = Receipt{
			ID:           uuid.NewString(),
			MessageID:    m.ID,
			UserID:       uid,
			EmailPlanned: m.hasChannel(notifications.ChannelEmail),
			EmailStatus:  EmailPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	if err := s.store.InsertReceipts(ctx, receipts); err != nil {
		if rerr := s.store.ReleaseSend(context.WithoutCancel(ctx), id); rerr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to release outreach message",
				logger.OutreachMessageID(id), logger.Error(rerr))
		}
		return SendResult{}, err
	}

	sent, err := s.deliver(ctx, m, resolved.UserIDs)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "outreach send interrupted",
			logger.OutreachMessageID(id), logger.Count("sent", sent), logger.Error(err))
		return SendResult{Sent: sent, Total: resolved.Total, Receipts: len(receipts)}, err
	}

	if m.hasChannel(notifications.ChannelEmail) {
		if _, err := s.store.StampEmailSent(ctx, id, s.now()); err != nil {
			return SendResult{Sent: sent, Total: resolved.Total, Receipts: len(receipts)}, err
		}
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "outreach message sent",
		logger.OutreachMessageID(id),
		logger.Count("recipients", sent),
		logger.Count("total", int(resolved.Total)),
	)
	return SendResult{Sent: sent, Total: resolved.Total, Receipts: len(receipts)}, nil
}

// notification renders m once into the payload every recipient shares.
func notification(m *Message) notifications.Notification {
	title := m.Subject
	if title == "" {
		title = m.Title
	}
	return notifications.Notification{
		Type:     templates.DefaultType,
		Title:    title,
		Message:  sanitizer.Truncate(m.Body, BodyPreviewLength, "..."),
		Channels: m.Channels,
		Priority: notifications.PriorityNormal,
		Status:   notifications.StatusUnread,
	}
}

// deliver inserts notifications batch by batch and dispatches each one
// after its batch is stored. Dispatch failures are logged and skipped.
func (s *Service) deliver(ctx context.Context, m *Message, userIDs []string) (int, error) {
	base := notification(m)
	sent := 0
	for start := 0; start < len(userIDs); start += s.batchSize {
		end := min(start+s.batchSize, len(userIDs))

		batch := make([]notifications.Notification, 0, end-start)
		for _, uid := range userIDs[start:end] {
			n := base
			n.Recipient = uid
			n.RecipientModel = "User"
			n.Channels = append([]notifications.Channel(nil), base.Channels...)
			n.Metadata = map[string]any{"outreachMessageId": m.ID}
			batch = append(batch, n)
		}

		inserted, err := s.notifier.InsertBatch(ctx, batch)
		if err != nil {
			return sent, err
		}
		for _, n := range inserted {
			if _, err := s.notifier.DispatchByID(ctx, n.ID); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return sent, err
				}
				s.logger.LogAttrs(ctx, slog.LevelWarn, "outreach delivery failed",
					logger.OutreachMessageID(m.ID),
					logger.NotificationID(n.ID),
					logger.Error(err),
				)
			}
		}
		sent += len(inserted)
	}
	return sent, nil
}

// MessageAnalytics aggregates receipts into engagement counts and rates.
func (s *Service) MessageAnalytics(ctx context.Context, id string) (*Analytics, error) {
	m, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.store.ReceiptStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		MessageID:    id,
		ReceiptStats: st,
		OpenRate:     rate(st.Opened, st.Total),
		ClickRate:    rate(st.Clicked, st.Total),
		SentAt:       m.SentAt,
	}, nil
}

func rate(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return sanitizer.RoundToDecimalPlaces(float64(n)/float64(total), 2)
}

// ListForRecipient pages through the messages a user received, newest
// first.
func (s *Service) ListForRecipient(ctx context.Context, userID string, page, limit int) (Page[InboxItem], error) {
	page, limit, skip := pagination(page, limit)
	receipts, total, err := s.store.ListReceipts(ctx, userID, skip, limit)
	if err != nil {
		return Page[InboxItem]{}, err
	}

	ids := make([]string, len(receipts))
	for i, r := range receipts {
		ids[i] = r.MessageID
	}
	msgs, err := s.store.MessagesByID(ctx, ids)
	if err != nil {
		return Page[InboxItem]{}, err
	}
	byID := make(map[string]Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	items := make([]InboxItem, 0, len(receipts))
	for _, r := range receipts {
		m, ok := byID[r.MessageID]
		if !ok {
			continue
		}
		items = append(items, InboxItem{
			MessageID: m.ID,
			Title:     m.Title,
			Subject:   m.Subject,
			Body:      m.Body,
			SentAt:    m.SentAt,
			SeenAt:    r.SeenAt,
			OpenedAt:  r.OpenedAt,
		})
	}
	return newPage(items, page, limit, total), nil
}

// MarkOpened stamps the receipt opened, and seen if it was not yet.
func (s *Service) MarkOpened(ctx context.Context, messageID, userID string) (*Receipt, error) {
	return s.store.RecordEvent(ctx, messageID, userID, EventOpened, s.now())
}

func (s *Service) MarkSeen(ctx context.Context, messageID, userID string) (*Receipt, error) {
	return s.store.RecordEvent(ctx, messageID, userID, EventSeen, s.now())
}

// RecordClick stamps the first click and counts every click.
func (s *Service) RecordClick(ctx context.Context, messageID, userID string) (*Receipt, error) {
	return s.store.RecordEvent(ctx, messageID, userID, EventClick, s.now())
}
