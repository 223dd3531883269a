package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/validator"
)

func TestNotification_Transition(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name        string
		from        notifications.Status
		to          notifications.Status
		wantStatus  notifications.Status
		wantChanged bool
		wantErr     bool
	}{
		{name: "unread to read", from: notifications.StatusUnread, to: notifications.StatusRead, wantStatus: notifications.StatusRead, wantChanged: true},
		{name: "unread to acknowledged", from: notifications.StatusUnread, to: notifications.StatusAcknowledged, wantStatus: notifications.StatusAcknowledged, wantChanged: true},
		{name: "read to acknowledged", from: notifications.StatusRead, to: notifications.StatusAcknowledged, wantStatus: notifications.StatusAcknowledged, wantChanged: true},
		{name: "read to archived", from: notifications.StatusRead, to: notifications.StatusArchived, wantStatus: notifications.StatusArchived, wantChanged: true},
		{name: "same status is a no-op", from: notifications.StatusRead, to: notifications.StatusRead, wantStatus: notifications.StatusRead},
		{name: "read after acknowledged is a no-op", from: notifications.StatusAcknowledged, to: notifications.StatusRead, wantStatus: notifications.StatusAcknowledged},
		{name: "back to unread fails", from: notifications.StatusRead, to: notifications.StatusUnread, wantStatus: notifications.StatusRead, wantErr: true},
		{name: "out of archived fails", from: notifications.StatusArchived, to: notifications.StatusRead, wantStatus: notifications.StatusArchived, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNotification("u1")
			n.Status = tt.from

			changed, err := n.Transition(tt.to, at)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.IsState(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantStatus, n.Status)
		})
	}
}

func TestNotification_TransitionTimestamps(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := newNotification("u1")

	_, err := n.Transition(notifications.StatusAcknowledged, at)
	require.NoError(t, err)
	require.NotNil(t, n.ReadAt)
	require.NotNil(t, n.AcknowledgedAt)
	assert.Equal(t, at, *n.ReadAt)
	assert.Equal(t, at, *n.AcknowledgedAt)

	later := at.Add(time.Hour)
	_, err = n.Transition(notifications.StatusArchived, later)
	require.NoError(t, err)
	assert.Equal(t, at, *n.ReadAt)
	assert.Equal(t, later, *n.ArchivedAt)
}

func TestNotification_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*notifications.Notification)
		fields []string
	}{
		{name: "valid", mutate: func(*notifications.Notification) {}},
		{name: "missing recipient", mutate: func(n *notifications.Notification) { n.Recipient = "" }, fields: []string{"recipient"}},
		{name: "blank title", mutate: func(n *notifications.Notification) { n.Title = "  " }, fields: []string{"title"}},
		{name: "missing message", mutate: func(n *notifications.Notification) { n.Message = "" }, fields: []string{"message"}},
		{name: "unknown priority", mutate: func(n *notifications.Notification) { n.Priority = "critical" }, fields: []string{"priority"}},
		{name: "empty priority defaults later", mutate: func(n *notifications.Notification) { n.Priority = "" }},
		{
			name:   "every failure reported",
			mutate: func(n *notifications.Notification) { n.Recipient, n.Title, n.Message = "", "", "" },
			fields: []string{"recipient", "title", "message"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNotification("u1")
			tt.mutate(&n)
			err := n.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, notifications.ErrInvalidNotification)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.fields, validator.ExtractValidationErrors(err).Fields())
		})
	}
}

func TestNotification_IsDueAndExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	n := newNotification("u1")
	assert.True(t, n.IsDue(now))
	assert.False(t, n.IsExpired(now))

	n.ScheduledFor = &future
	assert.False(t, n.IsDue(now))
	n.ScheduledFor = &now
	assert.True(t, n.IsDue(now))

	n.ExpiresAt = &past
	assert.True(t, n.IsExpired(now))
}

func TestChannels(t *testing.T) {
	t.Parallel()

	got := notifications.Channels("in_app", " email ", "", "in_app", "push")
	assert.Equal(t, []notifications.Channel{
		notifications.ChannelInApp, notifications.ChannelEmail, notifications.ChannelPush,
	}, got)
}
