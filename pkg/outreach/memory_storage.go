package outreach

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu        sync.RWMutex
	audiences map[string]Audience
	messages  map[string]Message
	receipts  map[string]Receipt // keyed by messageID + "/" + userID
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		audiences: make(map[string]Audience),
		messages:  make(map[string]Message),
		receipts:  make(map[string]Receipt),
	}
}

func receiptKey(messageID, userID string) string {
	return messageID + "/" + userID
}

func cloneAudience(a Audience) Audience {
	a.Metadata = maps.Clone(a.Metadata)
	a.Filter.Conditions = slices.Clone(a.Filter.Conditions)
	return a
}

func cloneMessage(m Message) Message {
	m.Channels = slices.Clone(m.Channels)
	m.Metadata = maps.Clone(m.Metadata)
	if m.Filter != nil {
		f := *m.Filter
		f.Conditions = slices.Clone(f.Conditions)
		m.Filter = &f
	}
	if m.SentAt != nil {
		t := *m.SentAt
		m.SentAt = &t
	}
	return m
}

func page[T any](items []T, skip, limit int) []T {
	lo := min(max(skip, 0), len(items))
	hi := len(items)
	if limit > 0 {
		hi = min(lo+limit, len(items))
	}
	return items[lo:hi]
}

func newestFirst(a, b time.Time, ida, idb string) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(idb, ida)
}

func (s *MemoryStorage) CreateAudience(_ context.Context, a Audience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audiences[a.ID] = cloneAudience(a)
	return nil
}

func (s *MemoryStorage) GetAudience(_ context.Context, id string) (*Audience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.audiences[id]
	if !ok {
		return nil, ErrAudienceNotFound
	}
	a = cloneAudience(a)
	return &a, nil
}

func (s *MemoryStorage) UpdateAudience(_ context.Context, a Audience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.audiences[a.ID]; !ok {
		return ErrAudienceNotFound
	}
	s.audiences[a.ID] = cloneAudience(a)
	return nil
}

func (s *MemoryStorage) DeleteAudience(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.audiences[id]; !ok {
		return ErrAudienceNotFound
	}
	delete(s.audiences, id)
	return nil
}

func (s *MemoryStorage) ListAudiences(_ context.Context, q ListQuery) ([]Audience, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	var all []Audience
	for _, a := range s.audiences {
		if search != "" && !strings.Contains(strings.ToLower(a.Name), search) {
			continue
		}
		all = append(all, cloneAudience(a))
	}
	slices.SortFunc(all, func(a, b Audience) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return page(all, q.Skip, q.Limit), int64(len(all)), nil
}

func (s *MemoryStorage) CreateMessage(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = cloneMessage(m)
	return nil
}

func (s *MemoryStorage) GetMessage(_ context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	m = cloneMessage(m)
	return &m, nil
}

func (s *MemoryStorage) MessagesByID(_ context.Context, ids []string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			out = append(out, cloneMessage(m))
		}
	}
	return out, nil
}

func (s *MemoryStorage) UpdateDraft(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.messages[m.ID]
	if !ok {
		return ErrMessageNotFound
	}
	if cur.Status != StatusDraft {
		return ErrNotDraft
	}
	m.Status = StatusDraft
	s.messages[m.ID] = cloneMessage(m)
	return nil
}

func (s *MemoryStorage) ListMessages(_ context.Context, q ListQuery) ([]Message, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Message
	for _, m := range s.messages {
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		all = append(all, cloneMessage(m))
	}
	slices.SortFunc(all, func(a, b Message) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return page(all, q.Skip, q.Limit), int64(len(all)), nil
}

func (s *MemoryStorage) ClaimSend(_ context.Context, id string, at time.Time) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	if m.Status != StatusDraft {
		return nil, ErrAlreadySent
	}
	m.Status = StatusSent
	m.SentAt = &at
	m.UpdatedAt = at
	s.messages[id] = m
	m = cloneMessage(m)
	return &m, nil
}

func (s *MemoryStorage) ReleaseSend(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	m.Status = StatusDraft
	m.SentAt = nil
	s.messages[id] = m
	return nil
}

func (s *MemoryStorage) InsertReceipts(_ context.Context, rs []Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		key := receiptKey(r.MessageID, r.UserID)
		if _, exists := s.receipts[key]; exists {
			continue
		}
		s.receipts[key] = r
	}
	return nil
}

func (s *MemoryStorage) StampEmailSent(_ context.Context, messageID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, r := range s.receipts {
		if r.MessageID != messageID {
			continue
		}
		t := at
		r.EmailSentAt = &t
		r.EmailStatus = EmailSent
		r.UpdatedAt = at
		s.receipts[k] = r
		n++
	}
	return n, nil
}

func (s *MemoryStorage) ReceiptStats(_ context.Context, messageID string) (ReceiptStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st ReceiptStats
	for _, r := range s.receipts {
		if r.MessageID != messageID {
			continue
		}
		st.Total++
		if r.EmailSentAt != nil {
			st.EmailSent++
		}
		if r.OpenedAt != nil {
			st.Opened++
		}
		if r.SeenAt != nil {
			st.Seen++
		}
		if r.ClickedAt != nil || r.ClickCount > 0 {
			st.Clicked++
		}
	}
	return st, nil
}

func (s *MemoryStorage) RecordEvent(_ context.Context, messageID, userID string, e ReceiptEvent, at time.Time) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := receiptKey(messageID, userID)
	r, ok := s.receipts[key]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	e.apply(&r, at)
	s.receipts[key] = r
	return &r, nil
}

func (s *MemoryStorage) ListReceipts(_ context.Context, userID string, skip, limit int) ([]Receipt, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Receipt
	for _, r := range s.receipts {
		if r.UserID == userID {
			all = append(all, r)
		}
	}
	slices.SortFunc(all, func(a, b Receipt) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return page(all, skip, limit), int64(len(all)), nil
}
