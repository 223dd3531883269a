package outreach

import (
	"context"
	"time"
)

// ListQuery narrows audience and message listings.
type ListQuery struct {
	// Search matches audience names case-insensitively.
	Search string
	// Status filters messages.
	Status MessageStatus
	Skip   int
	Limit  int
}

// Storage persists audiences, messages and receipts.
type Storage interface {
	CreateAudience(ctx context.Context, a Audience) error
	GetAudience(ctx context.Context, id string) (*Audience, error)
	UpdateAudience(ctx context.Context, a Audience) error
	DeleteAudience(ctx context.Context, id string) error
	ListAudiences(ctx context.Context, q ListQuery) ([]Audience, int64, error)

	CreateMessage(ctx context.Context, m Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	MessagesByID(ctx context.Context, ids []string) ([]Message, error)
	// UpdateDraft replaces a message that is still a draft and returns
	// ErrNotDraft otherwise.
	UpdateDraft(ctx context.Context, m Message) error
	ListMessages(ctx context.Context, q ListQuery) ([]Message, int64, error)
	// ClaimSend moves a draft to sent atomically. Only one caller wins;
	// the rest get ErrAlreadySent.
	ClaimSend(ctx context.Context, id string, at time.Time) (*Message, error)
	// ReleaseSend reverts a claimed message to draft.
	ReleaseSend(ctx context.Context, id string) error

	// InsertReceipts stores receipts, skipping any (message, user) pair that
	// already has one.
	InsertReceipts(ctx context.Context, rs []Receipt) error
	StampEmailSent(ctx context.Context, messageID string, at time.Time) (int64, error)
	ReceiptStats(ctx context.Context, messageID string) (ReceiptStats, error)
	RecordEvent(ctx context.Context, messageID, userID string, e ReceiptEvent, at time.Time) (*Receipt, error)
	ListReceipts(ctx context.Context, userID string, skip, limit int) ([]Receipt, int64, error)
}
