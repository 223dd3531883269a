package notifications_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

func TestNavigationBuilder_Build(t *testing.T) {
	t.Parallel()
	oid := bson.NewObjectID()

	tests := []struct {
		name      string
		typ       string
		metadata  map[string]any
		wantRoute string
		wantLink  string
		wantParam map[string]any
	}{
		{name: "event", typ: "event_reminder", metadata: map[string]any{"eventId": "e1"}, wantRoute: "EventDetails", wantLink: "meridian://event/e1", wantParam: map[string]any{"eventId": "e1"}},
		{name: "event with object id", typ: "event", metadata: map[string]any{"eventId": oid}, wantRoute: "EventDetails", wantLink: "meridian://event/" + oid.Hex(), wantParam: map[string]any{"eventId": oid.Hex()}},
		{name: "event without id falls through", typ: "event_update", wantRoute: "Events", wantLink: "meridian://"},
		{name: "org", typ: "membership", metadata: map[string]any{"orgId": "o1"}, wantRoute: "OrganizationProfile", wantLink: "meridian://organization/o1", wantParam: map[string]any{"orgId": "o1"}},
		{name: "friend request", typ: "friend_request", wantRoute: "MainTabs", wantLink: "meridian://friends/requests", wantParam: map[string]any{"screen": "Friends", "params": map[string]any{"initialTab": "requests"}}},
		{name: "friend accepted", typ: "friend_accepted", wantRoute: "MainTabs", wantLink: "meridian://friends", wantParam: map[string]any{"screen": "Friends"}},
		{name: "room", typ: "room_availability", metadata: map[string]any{"roomId": "r1"}, wantRoute: "RoomDetails", wantLink: "meridian://room/r1", wantParam: map[string]any{"roomId": "r1"}},
		{name: "system settings", typ: "system", metadata: map[string]any{"settings": true}, wantRoute: "Profile", wantLink: "meridian://settings", wantParam: map[string]any{"screen": "Settings"}},
		{name: "plain system", typ: "system", wantRoute: "Events", wantLink: "meridian://"},
		{name: "unknown type", typ: "achievement", wantRoute: "Events", wantLink: "meridian://"},
	}

	b := notifications.NewNavigationBuilder("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNotification("u1")
			n.Type = tt.typ
			n.Metadata = tt.metadata

			nav := b.Build(n)
			assert.Equal(t, "navigate", nav.Type)
			assert.Equal(t, tt.wantRoute, nav.Route)
			assert.Equal(t, tt.wantLink, nav.DeepLink)
			assert.Equal(t, tt.wantParam, nav.Params)
		})
	}
}

func TestNavigationBuilder_ExplicitOverride(t *testing.T) {
	t.Parallel()
	b := notifications.NewNavigationBuilder("campus")

	n := newNotification("u1")
	n.Type = "event"
	n.Metadata = map[string]any{
		"eventId": "e1",
		"navigation": bson.M{
			"route":    "OrgChat",
			"params":   bson.M{"orgId": "o1"},
			"deepLink": "campus://org/o1/chat",
		},
	}

	nav := b.Build(n)
	assert.Equal(t, notifications.Navigation{
		Type:     "navigate",
		Route:    "OrgChat",
		Params:   map[string]any{"orgId": "o1"},
		DeepLink: "campus://org/o1/chat",
	}, nav)

	n.Metadata = map[string]any{"eventId": "e1"}
	assert.Equal(t, "campus://event/e1", b.Build(n).DeepLink)
}
