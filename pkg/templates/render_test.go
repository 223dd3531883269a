package templates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/templates"
)

func mustGet(t *testing.T, name string) templates.Template {
	t.Helper()
	tpl, ok := templates.DefaultRegistry().Lookup(name)
	require.True(t, ok, name)
	return tpl
}

func TestRender_FriendRequest(t *testing.T) {
	t.Parallel()

	out := templates.Render(context.Background(), mustGet(t, "friend_request"), templates.Vars{
		"senderName":   "ana",
		"sender":       "u-1",
		"friendshipId": "f-9",
	})

	assert.Equal(t, "New Friend Request", out.Title)
	assert.Contains(t, out.Message, "Ana")
	assert.Equal(t, "system", out.Type)
	assert.Equal(t, "normal", out.Priority)
	assert.Equal(t, []string{"in_app", "push"}, out.Channels)
	assert.Equal(t, "u-1", out.Sender)
	assert.Equal(t, "User", out.SenderModel)
	require.Len(t, out.Actions, 2)
	assert.Equal(t, "/friend-request/accept/f-9", out.Actions[0].URL)

	nav, ok := out.Metadata["navigation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "meridian://friends/requests", nav["deepLink"])
	assert.Equal(t, "friend_request", out.Snapshot.Name)
	assert.Equal(t, "1.0", out.Snapshot.Version)
	assert.False(t, out.Snapshot.Processed)
	assert.Equal(t, "ana", out.Snapshot.Variables["senderName"])
}

func TestRender_PayloadAndNavigationInterpolation(t *testing.T) {
	t.Parallel()

	out := templates.Render(context.Background(), mustGet(t, "org_invitation"), templates.Vars{
		"orgName": "Chess Club", "role": "member", "invitationId": "inv-1",
	})
	assert.Equal(t, "You have been invited to join <strong>Chess Club</strong> as <em>Member</em>.", out.Message)
	assert.Equal(t, map[string]any{"invitationId": "inv-1"}, out.Actions[0].Payload)
	assert.Equal(t, "high", out.Priority)

	out = templates.Render(context.Background(), mustGet(t, "org_message_new"), templates.Vars{"orgId": "o-7", "orgName": "Chess"})
	nav := out.Metadata["navigation"].(map[string]any)
	assert.Equal(t, "meridian://organization/o-7", nav["deepLink"])
	assert.Equal(t, map[string]any{"orgId": "o-7"}, nav["params"])
	assert.Equal(t, "[messagePreview]", out.Message)
}

func TestRender_SmartEventReminder(t *testing.T) {
	t.Parallel()

	tpl := mustGet(t, "smart_event_reminder")
	base := templates.Vars{"eventName": "Hack Night", "timeUntil": "10 minutes", "eventId": "e-1"}
	with := func(extra templates.Vars) templates.Vars {
		v := templates.Vars{}
		for k, x := range base {
			v[k] = x
		}
		for k, x := range extra {
			v[k] = x
		}
		return v
	}

	tests := []struct {
		name         string
		vars         templates.Vars
		wantPriority string
		wantChannels []string
		wantActions  int
	}{
		{"urgent wins over today", with(templates.Vars{"isUrgent": true, "isToday": true, "canJoin": true}), "urgent", []string{"in_app", "push", "email"}, 2},
		{"today", with(templates.Vars{"isToday": true}), "high", []string{"in_app", "push"}, 1},
		{"neither", base, "normal", []string{"in_app"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := templates.Render(context.Background(), tpl, tt.vars)
			assert.Equal(t, tt.wantPriority, out.Priority)
			assert.Equal(t, tt.wantChannels, out.Channels)
			assert.Len(t, out.Actions, tt.wantActions)
			assert.Equal(t, "advanced", out.Metadata["templateType"])
			assert.True(t, out.Snapshot.Processed)
			assert.Equal(t, "/events/e-1", out.Actions[0].URL)
		})
	}

	urgent := templates.Render(context.Background(), tpl, with(templates.Vars{"isUrgent": true}))
	assert.Contains(t, urgent.Message, "URGENT")
	assert.Contains(t, urgent.Message, "Hack Night")
}

func TestRender_DynamicWelcome(t *testing.T) {
	t.Parallel()

	tpl := mustGet(t, "dynamic_welcome")

	out := templates.Render(context.Background(), tpl, templates.Vars{"name": "ana", "hasProfile": true})
	assert.Equal(t, "Welcome back, Ana! Your profile is complete.", out.Message)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, "explore", out.Actions[0].ID)

	out = templates.Render(context.Background(), tpl, templates.Vars{"name": "ana"})
	assert.Equal(t, "Hi Ana, welcome to Meridian! Please complete your profile.", out.Message)
	require.Len(t, out.Actions, 1)
	assert.Equal(t, "complete_profile", out.Actions[0].ID)
}

func TestRender_StaticKeepsConditionalActions(t *testing.T) {
	t.Parallel()

	tpl := templates.Template{
		Name:  "custom",
		Title: templates.Literal("t"),
		Actions: templates.Literal([]templates.Action{
			{ID: "a", Type: templates.ActionButton, Condition: "{{never}}"},
		}),
	}
	out := templates.Render(context.Background(), tpl, nil)
	assert.Len(t, out.Actions, 1)

	tpl.Advanced = true
	out = templates.Render(context.Background(), tpl, nil)
	assert.Empty(t, out.Actions)
}

func TestRender_DefaultsAndMetadata(t *testing.T) {
	t.Parallel()

	tpl := templates.Template{Name: "bare", Type: "event", Title: templates.Literal("Hello {{who}}")}
	out := templates.Render(context.Background(), tpl, templates.Vars{
		"metadata": map[string]any{"eventId": "e-5"},
	})

	assert.Equal(t, "Hello [who]", out.Title)
	assert.Equal(t, "event", out.Type)
	assert.Equal(t, "normal", out.Priority)
	assert.Equal(t, []string{"in_app"}, out.Channels)
	assert.Equal(t, "e-5", out.Metadata["eventId"])
	assert.NotContains(t, out.Metadata, "navigation")
	assert.Empty(t, out.Sender)
}

func TestRender_Totality(t *testing.T) {
	t.Parallel()

	for _, tpl := range templates.Builtin() {
		assert.NotPanics(t, func() {
			out := templates.Render(context.Background(), tpl, nil)
			assert.NotContains(t, out.Title, "{{", tpl.Name)
			assert.NotContains(t, out.Message, "{{", tpl.Name)
			for _, a := range out.Actions {
				assert.NotContains(t, a.URL, "{{", tpl.Name)
			}
		}, tpl.Name)
	}
}
