package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/httpapi"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/outreach"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

type fixture struct {
	handler  http.Handler
	notes    *notifications.Service
	outreach *outreach.Service
}

func newFixture(t *testing.T, opts ...httpapi.Option) *fixture {
	t.Helper()
	store := notifications.NewMemoryStorage()
	orgs := notifications.OrgDirectoryFunc(func(_ context.Context, orgID string) ([]notifications.Member, error) {
		if orgID != "o1" {
			return nil, notifications.ErrOrgNotFound
		}
		return []notifications.Member{{UserID: "u1", Role: "member"}, {UserID: "u2", Role: "owner"}}, nil
	})
	ns := notifications.NewService(store, nil, notifications.WithOrgDirectory(orgs))
	profiles := []map[string]any{
		{"_id": "u1", "role": "student", "name": "Ann"},
		{"_id": "u2", "role": "student", "name": "Bob"},
		{"_id": "u3", "role": "mentor", "name": "Cid"},
	}
	os := outreach.NewService(outreach.NewMemoryStorage(), audience.NewMemoryResolver(profiles), ns)
	return &fixture{handler: httpapi.NewRouter(ns, os, opts...), notes: ns, outreach: os}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Fields  map[string][]string `json:"fields"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, user, roles, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(httpapi.HeaderUserID, user)
	}
	if roles != "" {
		req.Header.Set(httpapi.HeaderUserRoles, roles)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (f *fixture) seed(t *testing.T, recipient, title string) *notifications.Notification {
	t.Helper()
	n, err := f.notes.Create(context.Background(), notifications.Notification{
		Recipient: recipient,
		Title:     title,
		Message:   title + " body",
	})
	require.NoError(t, err)
	return n
}

func TestRouter_Auth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		roles  string
		status int
		code   string
	}{
		{"anonymous recipient route", http.MethodGet, "/notifications", "", "", http.StatusUnauthorized, "unauthorized"},
		{"anonymous admin route", http.MethodGet, "/admin/outreach/messages", "", "", http.StatusUnauthorized, "unauthorized"},
		{"missing role", http.MethodGet, "/admin/outreach/messages", "u1", "student", http.StatusForbidden, "forbidden"},
		{"operator role", http.MethodGet, "/admin/outreach/messages", "op", "editor, admin", http.StatusOK, ""},
		{"recipient", http.MethodGet, "/notifications", "u1", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, tt.method, tt.path, tt.user, tt.roles, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
			}
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set(httpapi.HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(httpapi.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set(httpapi.HeaderRequestID, "bad id!")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	got := rec.Header().Get(httpapi.HeaderRequestID)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "bad id!", got)
}

func TestRouter_NotificationLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, "u1", "First")
	b := f.seed(t, "u1", "Second")
	f.seed(t, "u2", "Other")

	rec, env := f.do(t, http.MethodGet, "/notifications?limit=10", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []notifications.Notification
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	rec, env = f.do(t, http.MethodGet, "/notifications/unread-count", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	rec, env = f.do(t, http.MethodPost, "/notifications/"+a.ID+"/read", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var read notifications.Notification
	require.NoError(t, json.Unmarshal(env.Data, &read))
	assert.Equal(t, notifications.StatusRead, read.Status)
	assert.NotNil(t, read.ReadAt)

	// Another recipient cannot touch u1's notification.
	rec, _ = f.do(t, http.MethodPost, "/notifications/"+b.ID+"/archive", "u2", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/notifications/read", "u1", "", `{"all":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"modified":1}`, string(env.Data))

	rec, env = f.do(t, http.MethodGet, "/notifications/stats", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var counts notifications.StatusCounts
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, int64(2), counts.Read)
	assert.Equal(t, int64(0), counts.Unread)

	rec, _ = f.do(t, http.MethodDelete, "/notifications/"+b.ID, "u1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/notifications/"+b.ID+"/acknowledge", "u1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_BindErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		ctype  string
		status int
		code   string
	}{
		{"unknown field", http.MethodPost, "/notifications/read", `{"bogus":1}`, "application/json", http.StatusBadRequest, "bad_request"},
		{"malformed json", http.MethodPost, "/notifications/read", `{"ids":`, "application/json", http.StatusBadRequest, "bad_request"},
		{"trailing data", http.MethodPost, "/notifications/read", `{"all":true}{}`, "application/json", http.StatusBadRequest, "bad_request"},
		{"wrong content type", http.MethodPost, "/notifications/read", `{"all":true}`, "text/plain", http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"bad query int", http.MethodGet, "/notifications?limit=ten", "", "", http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			var req *http.Request
			if body != nil {
				req = httptest.NewRequest(tt.method, tt.path, body)
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			req.Header.Set(httpapi.HeaderUserID, "u1")
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestRouter_OutreachFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	const admin = "admin"

	rec, env := f.do(t, http.MethodPost, "/admin/outreach/audiences/preview", "op", admin,
		`{"filterDefinition":{"conditions":[{"field":"role","value":"student"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview audience.Result
	require.NoError(t, json.Unmarshal(env.Data, &preview))
	assert.Equal(t, int64(2), preview.Total)

	rec, env = f.do(t, http.MethodPost, "/admin/outreach/audiences", "op", admin,
		`{"name":"Students","filterDefinition":{"conditions":[{"field":"role","value":"student"}]}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var aud outreach.Audience
	require.NoError(t, json.Unmarshal(env.Data, &aud))
	assert.Equal(t, "op", aud.CreatedBy)

	rec, env = f.do(t, http.MethodPost, "/admin/outreach/messages", "op", admin,
		`{"title":"Exam week","body":"Good luck","audienceId":"`+aud.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var msg outreach.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, outreach.StatusDraft, msg.Status)

	rec, env = f.do(t, http.MethodPost, "/admin/outreach/messages/"+msg.ID+"/send", "op", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res outreach.SendResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.Sent)

	rec, env = f.do(t, http.MethodPost, "/admin/outreach/messages/"+msg.ID+"/send", "op", admin, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_state", env.Error.Code)

	rec, env = f.do(t, http.MethodGet, "/me/outreach-messages", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta["total"])

	rec, _ = f.do(t, http.MethodPost, "/me/outreach-messages/"+msg.ID+"/open", "u1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = f.do(t, http.MethodPost, "/me/outreach-messages/"+msg.ID+"/click", "u1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// u3 was not in the audience.
	rec, _ = f.do(t, http.MethodPost, "/me/outreach-messages/"+msg.ID+"/open", "u3", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/admin/outreach/messages/"+msg.ID+"/analytics", "op", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var an outreach.Analytics
	require.NoError(t, json.Unmarshal(env.Data, &an))
	assert.Equal(t, int64(2), an.Total)
	assert.Equal(t, int64(1), an.Opened)
	assert.Equal(t, int64(1), an.Clicked)

	rec, _ = f.do(t, http.MethodPut, "/admin/outreach/messages/"+msg.ID, "op", admin, `{"title":"Late edit"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_OutreachValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		fields []string
	}{
		{"audience without name", "/admin/outreach/audiences", `{"filterDefinition":{"conditions":[{"field":"role","value":"x"}]}}`, http.StatusBadRequest, []string{"name"}},
		{"message without audience", "/admin/outreach/messages", `{"title":"T","body":"B"}`, http.StatusBadRequest, nil},
		{"message without body", "/admin/outreach/messages", `{"title":"T","channels":["fax"]}`, http.StatusBadRequest, []string{"body", "channels"}},
		{"message with missing audience", "/admin/outreach/messages", `{"title":"T","body":"B","audienceId":"nope"}`, http.StatusNotFound, nil},
		{"preview with bad operator", "/admin/outreach/audiences/preview", `{"conditions":[{"field":"role","op":"like","value":"x"}]}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodPost, tt.path, "op", "root", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, env.Error)
			for _, field := range tt.fields {
				assert.NotEmpty(t, env.Error.Fields[field], field)
			}
		})
	}
}

func TestRouter_SendTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/admin/notifications", "op", "admin",
		`{"template":"welcome","recipients":[{"id":"u1"},{"id":"u2"}],"variables":{"name":"ann"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created []notifications.Notification
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 2)
	assert.Equal(t, "User", created[0].RecipientModel)
	assert.Contains(t, created[0].Message, "Ann")
}

func TestRouter_SendToOrg(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, env := f.do(t, http.MethodPost, "/admin/orgs/o1/notifications", "op", "admin",
		`{"template":"org_message_new","variables":{"orgName":"Chess Club","messagePreview":"Finals"},"roles":["owner"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created []notifications.Notification
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created, 1)
	assert.Equal(t, "u2", created[0].Recipient)
	assert.EqualValues(t, 1, env.Meta["count"])

	tests := []struct {
		name   string
		path   string
		roles  string
		body   string
		status int
	}{
		{"unknown org", "/admin/orgs/nope/notifications", "admin", `{"template":"org_message_new"}`, http.StatusNotFound},
		{"missing template", "/admin/orgs/o1/notifications", "admin", `{}`, http.StatusBadRequest},
		{"not an operator", "/admin/orgs/o1/notifications", "student", `{"template":"org_message_new"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := f.do(t, http.MethodPost, tt.path, "op", tt.roles, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRouter_ActionRateLimit(t *testing.T) {
	t.Parallel()
	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(),
		ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	f := newFixture(t, httpapi.WithActionLimiter(limiter))
	n := f.seed(t, "u1", "Invite")

	path := "/notifications/" + n.ID + "/actions/accept"
	rec, _ := f.do(t, http.MethodPost, path, "u1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown action")
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec, env := f.do(t, http.MethodPost, path, "u1", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "too_many_requests", env.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Buckets are per caller.
	rec, _ = f.do(t, http.MethodPost, path, "u2", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ActionUpstreamFailure(t *testing.T) {
	t.Parallel()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(target.Close)

	f := newFixture(t)
	n, err := f.notes.Create(context.Background(), notifications.Notification{
		Recipient: "u1",
		Title:     "Invite",
		Message:   "Join the club",
		Actions: []templates.Action{
			{ID: "accept", Label: "Accept", Type: templates.ActionAPICall, Method: http.MethodPost, URL: target.URL + "/accept"},
		},
	})
	require.NoError(t, err)

	rec, env := f.do(t, http.MethodPost, "/notifications/"+n.ID+"/actions/accept", "u1", "", `{"data":{"note":"hi"}}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "upstream_failed", env.Error.Code)
}
