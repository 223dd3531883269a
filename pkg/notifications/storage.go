package notifications

import (
	"context"
	"time"
)

// DefaultListLimit is applied when ListOptions.Limit is not positive.
const DefaultListLimit = 20

// Storage persists notifications. Soft-deleted records behave as missing
// for every read and update.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// CreateMany stores notifications in one round trip.
	CreateMany(ctx context.Context, ns []Notification) error

	// Get returns the notification by id.
	Get(ctx context.Context, id string) (*Notification, error)

	// GetForRecipient returns the notification only if it belongs to
	// recipient; otherwise ErrNotificationNotFound.
	GetForRecipient(ctx context.Context, id, recipient string) (*Notification, error)

	// UpdateLifecycle writes status, its timestamps and soft-delete state.
	UpdateLifecycle(ctx context.Context, n Notification) error

	// UpdateDelivery writes delivery status, attempts and channel results.
	UpdateDelivery(ctx context.Context, n Notification) error

	// UpdateActionResult replaces the stored action result.
	UpdateActionResult(ctx context.Context, id string, res ActionResult) error

	// List returns the recipient's notifications, newest first.
	List(ctx context.Context, recipient, model string, opts ListOptions) ([]Notification, error)

	// MarkRead moves matching unread notifications to read and returns how
	// many changed.
	MarkRead(ctx context.Context, recipient, model string, filter MarkReadFilter, at time.Time) (int64, error)

	// CountByStatus counts the recipient's notifications per status.
	CountByStatus(ctx context.Context, recipient, model string) (StatusCounts, error)

	// ListDue returns pending notifications scheduled at or before now,
	// oldest schedule first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error)

	// DeleteExpired removes notifications whose expiry has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ListOptions filters and pages a recipient listing.
type ListOptions struct {
	Status Status
	Type   string
	Limit  int
	Skip   int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// MarkReadFilter narrows MarkRead. Empty IDs means every notification.
type MarkReadFilter struct {
	IDs  []string
	Type string
}

// StatusCounts is the per-status breakdown for one recipient.
type StatusCounts struct {
	Unread       int64 `json:"unread"`
	Read         int64 `json:"read"`
	Acknowledged int64 `json:"acknowledged"`
	Archived     int64 `json:"archived"`
	Total        int64 `json:"total"`
}

func (c *StatusCounts) add(s Status, n int64) {
	switch s {
	case StatusUnread:
		c.Unread += n
	case StatusRead:
		c.Read += n
	case StatusAcknowledged:
		c.Acknowledged += n
	case StatusArchived:
		c.Archived += n
	}
	c.Total += n
}
