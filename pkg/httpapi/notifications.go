package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

type notificationHandlers struct {
	svc           NotificationService
	actionBaseURL string
}

type idRequest struct {
	ID string `path:"id"`
}

type listRequest struct {
	Status string `query:"status"`
	Type   string `query:"type"`
	Limit  int    `query:"limit"`
	Skip   int    `query:"skip"`
}

func (h *notificationHandlers) list(ctx Context, req listRequest) Response {
	c := ctx.Caller()
	ns, err := h.svc.List(ctx, c.ID, c.Model, notifications.ListOptions{
		Status: notifications.Status(req.Status),
		Type:   req.Type,
		Limit:  req.Limit,
		Skip:   req.Skip,
	})
	if err != nil {
		return Error(err)
	}
	if ns == nil {
		ns = []notifications.Notification{}
	}
	return JSON(ns)
}

func (h *notificationHandlers) unreadCount(ctx Context, _ struct{}) Response {
	c := ctx.Caller()
	n, err := h.svc.UnreadCount(ctx, c.ID, c.Model)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]int64{"count": n})
}

func (h *notificationHandlers) stats(ctx Context, _ struct{}) Response {
	c := ctx.Caller()
	counts, err := h.svc.Statistics(ctx, c.ID, c.Model)
	if err != nil {
		return Error(err)
	}
	return JSON(counts)
}

type markManyRequest struct {
	IDs  []string `json:"ids"`
	All  bool     `json:"all"`
	Type string   `json:"type"`
}

// markMany marks the listed ids read, or every unread notification when
// all is set.
func (h *notificationHandlers) markMany(ctx Context, req markManyRequest) Response {
	c := ctx.Caller()
	var (
		n   int64
		err error
	)
	if req.All {
		n, err = h.svc.MarkAllRead(ctx, c.ID, c.Model, req.Type)
	} else {
		n, err = h.svc.MarkManyRead(ctx, c.ID, c.Model, req.IDs)
	}
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]int64{"modified": n})
}

func (h *notificationHandlers) markRead(ctx Context, req idRequest) Response {
	return notificationOrError(h.svc.MarkRead(ctx, req.ID, ctx.Caller().ID))
}

func (h *notificationHandlers) acknowledge(ctx Context, req idRequest) Response {
	return notificationOrError(h.svc.Acknowledge(ctx, req.ID, ctx.Caller().ID))
}

func (h *notificationHandlers) archive(ctx Context, req idRequest) Response {
	return notificationOrError(h.svc.Archive(ctx, req.ID, ctx.Caller().ID))
}

func notificationOrError(n *notifications.Notification, err error) Response {
	if err != nil {
		return Error(err)
	}
	return JSON(n)
}

func (h *notificationHandlers) delete(ctx Context, req idRequest) Response {
	if err := h.svc.Delete(ctx, req.ID, ctx.Caller().ID); err != nil {
		return Error(err)
	}
	return Empty()
}

type actionRequest struct {
	ID       string         `path:"id"`
	ActionID string         `path:"actionID"`
	Data     map[string]any `json:"data"`
}

// executeAction forwards the caller's cookie so api_call actions run with
// their session.
func (h *notificationHandlers) executeAction(ctx Context, req actionRequest) Response {
	var auth *notifications.AuthContext
	if cookie := ctx.Request().Header.Get("Cookie"); cookie != "" {
		auth = &notifications.AuthContext{Cookie: cookie, BaseURL: h.actionBaseURL}
	}
	res, err := h.svc.ExecuteAction(ctx, req.ID, req.ActionID, ctx.Caller().ID, req.Data, auth)
	if err != nil {
		return Error(err)
	}
	return JSON(res)
}

type sendToOrgRequest struct {
	OrgID     string         `path:"orgID" json:"-"`
	Template  string         `json:"template"`
	Variables templates.Vars `json:"variables"`
	Roles     []string       `json:"roles"`
}

// sendToOrg broadcasts a template to an organization's members, limited
// to roles when given.
func (h *notificationHandlers) sendToOrg(ctx Context, req sendToOrgRequest) Response {
	created, err := h.svc.SendTemplateToOrgMembers(ctx, req.OrgID, req.Template, req.Variables, req.Roles...)
	if err != nil {
		return Error(err)
	}
	return JSON(created, WithStatus(http.StatusCreated), WithMeta(map[string]any{"count": len(created)}))
}

type sendTemplateRequest struct {
	Recipients []notifications.Recipient `json:"recipients"`
	Template   string                    `json:"template"`
	Variables  templates.Vars            `json:"variables"`
	Advanced   bool                      `json:"advanced"`
}

func (h *notificationHandlers) sendTemplate(ctx Context, req sendTemplateRequest) Response {
	for i := range req.Recipients {
		if req.Recipients[i].Model == "" {
			req.Recipients[i].Model = "User"
		}
	}
	if req.Advanced {
		created := make([]notifications.Notification, 0, len(req.Recipients))
		for _, r := range req.Recipients {
			n, err := h.svc.CreateFromAdvancedTemplate(ctx, r, req.Template, req.Variables)
			if err != nil {
				return Error(err)
			}
			created = append(created, *n)
		}
		return JSON(created, WithStatus(http.StatusCreated))
	}
	created, err := h.svc.CreateBatchFromTemplate(ctx, req.Recipients, req.Template, req.Variables)
	if err != nil {
		return Error(err)
	}
	return JSON(created, WithStatus(http.StatusCreated))
}
