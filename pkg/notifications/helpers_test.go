package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// MockDeliverer for testing the dispatcher
type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, n notifications.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func newNotification(recipient string, channels ...notifications.Channel) notifications.Notification {
	if len(channels) == 0 {
		channels = []notifications.Channel{notifications.ChannelInApp}
	}
	now := time.Now()
	return notifications.Notification{
		ID:             uuid.NewString(),
		Recipient:      recipient,
		RecipientModel: "User",
		Type:           "system",
		Title:          "Hello",
		Message:        "<p>Hello <strong>there</strong></p>",
		Priority:       notifications.PriorityNormal,
		Channels:       channels,
		Status:         notifications.StatusUnread,
		DeliveryStatus: notifications.DeliveryPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func seed(t *testing.T, store notifications.Storage, ns ...notifications.Notification) {
	t.Helper()
	require.NoError(t, store.CreateMany(context.Background(), ns))
}

func contactsFor(c notifications.Contact) *notifications.ContactDirectory {
	return notifications.NewContactDirectory(
		notifications.WithContactResolver("User", notifications.ContactResolverFunc(
			func(context.Context, string) (notifications.Contact, error) { return c, nil },
		)),
	)
}
