package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/outreach"
)

type outreachHandlers struct {
	svc OutreachService
}

type pageRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Search string `query:"search"`
	Status string `query:"status"`
}

func pageResponse[T any](p outreach.Page[T], err error) Response {
	if err != nil {
		return Error(err)
	}
	return JSON(p.Items, WithMeta(map[string]any{
		"page":  p.Page,
		"limit": p.Limit,
		"total": p.Total,
		"pages": p.Pages,
	}))
}

func (h *outreachHandlers) inbox(ctx Context, req pageRequest) Response {
	return pageResponse(h.svc.ListForRecipient(ctx, ctx.Caller().ID, req.Page, req.Limit))
}

func (h *outreachHandlers) track(e outreach.ReceiptEvent) HandlerFunc[idRequest] {
	return func(ctx Context, req idRequest) Response {
		uid := ctx.Caller().ID
		var err error
		switch e {
		case outreach.EventOpened:
			_, err = h.svc.MarkOpened(ctx, req.ID, uid)
		case outreach.EventSeen:
			_, err = h.svc.MarkSeen(ctx, req.ID, uid)
		case outreach.EventClick:
			_, err = h.svc.RecordClick(ctx, req.ID, uid)
		}
		if err != nil {
			return Error(err)
		}
		return Empty()
	}
}

func (h *outreachHandlers) createAudience(ctx Context, req outreach.AudienceInput) Response {
	req.CreatedBy = ctx.Caller().ID
	a, err := h.svc.CreateAudience(ctx, req)
	if err != nil {
		return Error(err)
	}
	return JSON(a, WithStatus(http.StatusCreated))
}

func (h *outreachHandlers) listAudiences(ctx Context, req pageRequest) Response {
	return pageResponse(h.svc.ListAudiences(ctx, req.Search, req.Page, req.Limit))
}

func (h *outreachHandlers) getAudience(ctx Context, req idRequest) Response {
	a, err := h.svc.GetAudience(ctx, req.ID)
	if err != nil {
		return Error(err)
	}
	return JSON(a)
}

type updateAudienceRequest struct {
	ID string `path:"id" json:"-"`
	outreach.AudienceUpdate
}

func (h *outreachHandlers) updateAudience(ctx Context, req updateAudienceRequest) Response {
	a, err := h.svc.UpdateAudience(ctx, req.ID, req.AudienceUpdate)
	if err != nil {
		return Error(err)
	}
	return JSON(a)
}

func (h *outreachHandlers) deleteAudience(ctx Context, req idRequest) Response {
	if err := h.svc.DeleteAudience(ctx, req.ID); err != nil {
		return Error(err)
	}
	return Empty()
}

// previewRequest accepts the filter either wrapped in filterDefinition or
// inline at the top level.
type previewRequest struct {
	audience.Filter
	FilterDefinition *audience.Filter `json:"filterDefinition"`
	Limit            int              `json:"limit"`
}

func (h *outreachHandlers) preview(ctx Context, req previewRequest) Response {
	f := req.Filter
	if req.FilterDefinition != nil {
		f = *req.FilterDefinition
	}
	res, err := h.svc.PreviewAudience(ctx, f, req.Limit)
	if err != nil {
		return Error(err)
	}
	return JSON(res)
}

func (h *outreachHandlers) createMessage(ctx Context, req outreach.MessageInput) Response {
	req.CreatedBy = ctx.Caller().ID
	m, err := h.svc.CreateMessage(ctx, req)
	if err != nil {
		return Error(err)
	}
	return JSON(m, WithStatus(http.StatusCreated))
}

func (h *outreachHandlers) listMessages(ctx Context, req pageRequest) Response {
	return pageResponse(h.svc.ListMessages(ctx, outreach.MessageStatus(req.Status), req.Page, req.Limit))
}

func (h *outreachHandlers) getMessage(ctx Context, req idRequest) Response {
	m, err := h.svc.GetMessage(ctx, req.ID)
	if err != nil {
		return Error(err)
	}
	return JSON(m)
}

type updateMessageRequest struct {
	ID string `path:"id" json:"-"`
	outreach.MessageUpdate
}

func (h *outreachHandlers) updateMessage(ctx Context, req updateMessageRequest) Response {
	m, err := h.svc.UpdateMessage(ctx, req.ID, req.MessageUpdate)
	if err != nil {
		return Error(err)
	}
	return JSON(m)
}

func (h *outreachHandlers) send(ctx Context, req idRequest) Response {
	res, err := h.svc.SendMessage(ctx, req.ID)
	if err != nil {
		return Error(err)
	}
	return JSON(res)
}

func (h *outreachHandlers) analytics(ctx Context, req idRequest) Response {
	a, err := h.svc.MessageAnalytics(ctx, req.ID)
	if err != nil {
		return Error(err)
	}
	return JSON(a)
}
