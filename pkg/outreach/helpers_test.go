package outreach_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/outreach"
)

// countingNotifier records the batches passed to the wrapped notifier.
type countingNotifier struct {
	outreach.Notifier
	mu      sync.Mutex
	batches []int
}

func (c *countingNotifier) InsertBatch(ctx context.Context, ns []notifications.Notification) ([]notifications.Notification, error) {
	c.mu.Lock()
	c.batches = append(c.batches, len(ns))
	c.mu.Unlock()
	return c.Notifier.InsertBatch(ctx, ns)
}

type harness struct {
	svc      *outreach.Service
	store    *outreach.MemoryStorage
	notes    *notifications.MemoryStorage
	notifier *countingNotifier

	mu     sync.Mutex
	emails []string
}

func newHarness(t *testing.T, profiles []map[string]any, opts ...outreach.ServiceOption) *harness {
	t.Helper()
	h := &harness{
		store: outreach.NewMemoryStorage(),
		notes: notifications.NewMemoryStorage(),
	}
	email := notifications.DelivererFunc(func(_ context.Context, n notifications.Notification) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.emails = append(h.emails, n.Recipient)
		return nil
	})
	dispatcher := notifications.NewDispatcher(h.notes, notifications.WithDeliverer(notifications.ChannelEmail, email))
	h.notifier = &countingNotifier{Notifier: notifications.NewService(h.notes, dispatcher)}
	h.svc = outreach.NewService(h.store, audience.NewMemoryResolver(profiles), h.notifier, opts...)
	return h
}

// notificationsFor returns every notification stored for the given users.
func (h *harness) notificationsFor(t *testing.T, users ...string) []notifications.Notification {
	t.Helper()
	var out []notifications.Notification
	for _, u := range users {
		ns, err := h.notes.List(context.Background(), u, "User", notifications.ListOptions{Limit: 100})
		require.NoError(t, err)
		out = append(out, ns...)
	}
	return out
}

func profiles(n int, role string) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"_id": fmt.Sprintf("%s-%02d", role, i), "role": role}
	}
	return out
}

func ids(ps []map[string]any) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p["_id"].(string)
	}
	return out
}

func roleFilter(role string) *audience.Filter {
	return &audience.Filter{Conditions: []audience.Condition{{Field: "role", Value: role}}}
}
