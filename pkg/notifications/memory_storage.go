package notifications

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	mu            sync.RWMutex
	notifications map[string]Notification
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{notifications: make(map[string]Notification)}
}

func (s *MemoryStorage) Create(ctx context.Context, n Notification) error {
	return s.CreateMany(ctx, []Notification{n})
}

func (s *MemoryStorage) CreateMany(_ context.Context, ns []Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range ns {
		if n.ID == "" || n.Recipient == "" {
			return ErrInvalidNotification
		}
	}
	for _, n := range ns {
		s.notifications[n.ID] = clone(n)
	}
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok || n.IsDeleted() {
		return nil, ErrNotificationNotFound
	}
	out := clone(n)
	return &out, nil
}

func (s *MemoryStorage) GetForRecipient(ctx context.Context, id, recipient string) (*Notification, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Recipient != recipient {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

func (s *MemoryStorage) UpdateLifecycle(_ context.Context, n Notification) error {
	return s.update(n.ID, func(cur *Notification) {
		cur.Status = n.Status
		cur.ReadAt = n.ReadAt
		cur.AcknowledgedAt = n.AcknowledgedAt
		cur.ArchivedAt = n.ArchivedAt
		cur.DeletedAt = n.DeletedAt
		cur.UpdatedAt = n.UpdatedAt
	})
}

func (s *MemoryStorage) UpdateDelivery(_ context.Context, n Notification) error {
	return s.update(n.ID, func(cur *Notification) {
		cur.DeliveryStatus = n.DeliveryStatus
		cur.DeliveryAttempts = n.DeliveryAttempts
		cur.LastDeliveryAttempt = n.LastDeliveryAttempt
		cur.ChannelResults = slices.Clone(n.ChannelResults)
		cur.UpdatedAt = n.UpdatedAt
	})
}

func (s *MemoryStorage) UpdateActionResult(_ context.Context, id string, res ActionResult) error {
	return s.update(id, func(cur *Notification) {
		cur.ActionResult = &res
		cur.UpdatedAt = res.ExecutedAt
	})
}

func (s *MemoryStorage) update(id string, fn func(*Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.notifications[id]
	if !ok || cur.IsDeleted() {
		return ErrNotificationNotFound
	}
	fn(&cur)
	s.notifications[id] = cur
	return nil
}

func (s *MemoryStorage) List(_ context.Context, recipient, model string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.notifications {
		if !owns(n, recipient, model) {
			continue
		}
		if opts.Status != "" && n.Status != opts.Status {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		filtered = append(filtered, n)
	}

	slices.SortFunc(filtered, func(a, b Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	start := min(max(opts.Skip, 0), len(filtered))
	end := min(start+opts.limit(), len(filtered))

	out := make([]Notification, 0, end-start)
	for _, n := range filtered[start:end] {
		out = append(out, clone(n))
	}
	return out, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, recipient, model string, filter MarkReadFilter, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for id, n := range s.notifications {
		if !owns(n, recipient, model) || n.Status != StatusUnread {
			continue
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, id) {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if _, err := n.Transition(StatusRead, at); err != nil {
			continue
		}
		s.notifications[id] = n
		changed++
	}
	return changed, nil
}

func (s *MemoryStorage) CountByStatus(_ context.Context, recipient, model string) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts StatusCounts
	for _, n := range s.notifications {
		if owns(n, recipient, model) {
			counts.add(n.Status, 1)
		}
	}
	return counts, nil
}

func (s *MemoryStorage) ListDue(_ context.Context, now time.Time, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Notification
	for _, n := range s.notifications {
		if n.IsDeleted() || n.DeliveryStatus != DeliveryPending || n.ScheduledFor == nil {
			continue
		}
		if n.IsDue(now) {
			due = append(due, clone(n))
		}
	}
	slices.SortFunc(due, func(a, b Notification) int {
		return a.ScheduledFor.Compare(*b.ScheduledFor)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStorage) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, n := range s.notifications {
		if n.IsExpired(now) {
			delete(s.notifications, id)
			removed++
		}
	}
	return removed, nil
}

func owns(n Notification, recipient, model string) bool {
	return !n.IsDeleted() && n.Recipient == recipient && (model == "" || n.RecipientModel == model)
}

// clone copies the slices and the top-level metadata map so callers cannot
// mutate stored records.
func clone(n Notification) Notification {
	n.Actions = slices.Clone(n.Actions)
	n.Channels = slices.Clone(n.Channels)
	n.ChannelResults = slices.Clone(n.ChannelResults)
	n.Metadata = maps.Clone(n.Metadata)
	if n.Template != nil {
		t := *n.Template
		n.Template = &t
	}
	return n
}
