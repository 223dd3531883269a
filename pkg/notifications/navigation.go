package notifications

import (
	"fmt"

	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// DefaultScheme is the deep-link scheme used when none is configured.
const DefaultScheme = "meridian"

// Navigation tells a client where to route when a notification is opened.
// Route and Params feed the in-app router; DeepLink serves cold starts.
type Navigation struct {
	Type     string         `json:"type" bson:"type"`
	Route    string         `json:"route,omitempty" bson:"route,omitempty"`
	Params   map[string]any `json:"params,omitempty" bson:"params,omitempty"`
	DeepLink string         `json:"deepLink,omitempty" bson:"deepLink,omitempty"`
}

// NavigationBuilder derives navigation from a notification.
type NavigationBuilder struct {
	Scheme string
}

func NewNavigationBuilder(scheme string) NavigationBuilder {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return NavigationBuilder{Scheme: scheme}
}

// Build returns metadata.navigation when present; otherwise it picks a
// route by notification type. Types whose id is missing from metadata get
// the default route.
func (b NavigationBuilder) Build(n Notification) Navigation {
	if nav, ok := explicitNavigation(n.Metadata); ok {
		return nav
	}

	scheme := b.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	link := func(path string) string { return scheme + "://" + path }
	nav := Navigation{Type: "navigate"}

	switch n.Type {
	case "event", "event_reminder", "event_update":
		if id := idString(n.Metadata["eventId"]); id != "" {
			nav.Route = "EventDetails"
			nav.Params = map[string]any{"eventId": id}
			nav.DeepLink = link("event/" + id)
			return nav
		}
	case "org", "membership":
		if id := idString(n.Metadata["orgId"]); id != "" {
			nav.Route = "OrganizationProfile"
			nav.Params = map[string]any{"orgId": id}
			nav.DeepLink = link("organization/" + id)
			return nav
		}
	case "friend_request":
		nav.Route = "MainTabs"
		nav.Params = map[string]any{"screen": "Friends", "params": map[string]any{"initialTab": "requests"}}
		nav.DeepLink = link("friends/requests")
		return nav
	case "friend_accepted", "friend_activity":
		nav.Route = "MainTabs"
		nav.Params = map[string]any{"screen": "Friends"}
		nav.DeepLink = link("friends")
		return nav
	case "room", "room_availability":
		if id := idString(n.Metadata["roomId"]); id != "" {
			nav.Route = "RoomDetails"
			nav.Params = map[string]any{"roomId": id}
			nav.DeepLink = link("room/" + id)
			return nav
		}
	case "system", "system_update":
		if _, ok := n.Metadata["settings"]; ok {
			nav.Route = "Profile"
			nav.Params = map[string]any{"screen": "Settings"}
			nav.DeepLink = link("settings")
			return nav
		}
	}

	nav.Route = "Events"
	nav.DeepLink = link("")
	return nav
}

func explicitNavigation(metadata map[string]any) (Navigation, bool) {
	raw, ok := metadata["navigation"]
	if !ok || raw == nil {
		return Navigation{}, false
	}
	if nav, ok := raw.(Navigation); ok {
		return nav, true
	}
	m, ok := mongox.AsMap(raw)
	if !ok {
		return Navigation{}, false
	}

	nav := Navigation{
		Type:     stringOf(m["type"]),
		Route:    stringOf(m["route"]),
		DeepLink: stringOf(m["deepLink"]),
	}
	if params, ok := mongox.AsMap(m["params"]); ok {
		nav.Params = params
	}
	if nav.Type == "" {
		nav.Type = "navigate"
	}
	return nav, true
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

// idString renders an identifier stored as a string, an ObjectID or any
// other Stringer.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case interface{ Hex() string }:
		return id.Hex()
	case fmt.Stringer:
		return id.String()
	}
	return fmt.Sprint(v)
}
