package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/outreach"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

// DefaultOperatorRoles may manage outreach and send template notifications.
var DefaultOperatorRoles = []string{"admin", "root", "oie"}

// NotificationService is the part of notifications.Service the API uses.
type NotificationService interface {
	List(ctx context.Context, recipient, model string, opts notifications.ListOptions) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, recipient, model string) (int64, error)
	Statistics(ctx context.Context, recipient, model string) (notifications.StatusCounts, error)
	MarkRead(ctx context.Context, id, recipient string) (*notifications.Notification, error)
	MarkManyRead(ctx context.Context, recipient, model string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, recipient, model, typ string) (int64, error)
	Acknowledge(ctx context.Context, id, recipient string) (*notifications.Notification, error)
	Archive(ctx context.Context, id, recipient string) (*notifications.Notification, error)
	Delete(ctx context.Context, id, recipient string) error
	ExecuteAction(ctx context.Context, id, actionID, recipient string, data map[string]any, auth *notifications.AuthContext) (*notifications.ActionResult, error)
	CreateBatchFromTemplate(ctx context.Context, recipients []notifications.Recipient, name string, vars templates.Vars) ([]notifications.Notification, error)
	CreateFromAdvancedTemplate(ctx context.Context, r notifications.Recipient, name string, vars templates.Vars) (*notifications.Notification, error)
	SendTemplateToOrgMembers(ctx context.Context, orgID, name string, vars templates.Vars, roles ...string) ([]notifications.Notification, error)
}

// OutreachService is the part of outreach.Service the API uses.
type OutreachService interface {
	CreateAudience(ctx context.Context, in outreach.AudienceInput) (*outreach.Audience, error)
	GetAudience(ctx context.Context, id string) (*outreach.Audience, error)
	UpdateAudience(ctx context.Context, id string, upd outreach.AudienceUpdate) (*outreach.Audience, error)
	DeleteAudience(ctx context.Context, id string) error
	ListAudiences(ctx context.Context, search string, page, limit int) (outreach.Page[outreach.Audience], error)
	PreviewAudience(ctx context.Context, f audience.Filter, limit int) (audience.Result, error)
	CreateMessage(ctx context.Context, in outreach.MessageInput) (*outreach.Message, error)
	UpdateMessage(ctx context.Context, id string, upd outreach.MessageUpdate) (*outreach.Message, error)
	GetMessage(ctx context.Context, id string) (*outreach.Message, error)
	ListMessages(ctx context.Context, status outreach.MessageStatus, page, limit int) (outreach.Page[outreach.Message], error)
	SendMessage(ctx context.Context, id string) (outreach.SendResult, error)
	MessageAnalytics(ctx context.Context, id string) (*outreach.Analytics, error)
	ListForRecipient(ctx context.Context, userID string, page, limit int) (outreach.Page[outreach.InboxItem], error)
	MarkOpened(ctx context.Context, messageID, userID string) (*outreach.Receipt, error)
	MarkSeen(ctx context.Context, messageID, userID string) (*outreach.Receipt, error)
	RecordClick(ctx context.Context, messageID, userID string) (*outreach.Receipt, error)
}

type config struct {
	logger        *slog.Logger
	operatorRoles []string
	defaultModel  string
	actionBaseURL string
	actionLimiter ratelimiter.Limiter
	extra         []func(chi.Router)
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOperatorRoles replaces DefaultOperatorRoles.
func WithOperatorRoles(roles ...string) Option {
	return func(c *config) {
		if len(roles) > 0 {
			c.operatorRoles = roles
		}
	}
}

// WithActionBaseURL is the base relative action URLs resolve against when
// the caller's cookie is forwarded.
func WithActionBaseURL(u string) Option {
	return func(c *config) { c.actionBaseURL = u }
}

// WithActionLimiter throttles action execution per caller. Actions may
// call out to other services.
func WithActionLimiter(l ratelimiter.Limiter) Option {
	return func(c *config) { c.actionLimiter = l }
}

// WithRoutes mounts additional routes, such as health and metrics, outside
// the authenticated groups.
func WithRoutes(fn func(chi.Router)) Option {
	return func(c *config) { c.extra = append(c.extra, fn) }
}

// NewRouter builds the HTTP API.
func NewRouter(ns NotificationService, rs OutreachService, opts ...Option) http.Handler {
	cfg := &config{
		logger:        logger.Discard(),
		operatorRoles: DefaultOperatorRoles,
		defaultModel:  "User",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger
	n := &notificationHandlers{svc: ns, actionBaseURL: cfg.actionBaseURL}
	o := &outreachHandlers{svc: rs}

	limit := func(name string) func(http.Handler) http.Handler {
		if cfg.actionLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return RateLimit(log, name, cfg.actionLimiter)
	}

	r := chi.NewRouter()
	r.Use(RequestID, middleware.Recoverer, AccessLog(log), Identity(cfg.defaultModel))
	for _, fn := range cfg.extra {
		fn(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireCaller(log))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", Wrap(log, n.list, Query()))
			r.Get("/unread-count", Wrap(log, n.unreadCount))
			r.Get("/stats", Wrap(log, n.stats))
			r.Post("/read", Wrap(log, n.markMany, JSONBody()))
			r.Post("/{id}/read", Wrap(log, n.markRead, Path()))
			r.Post("/{id}/acknowledge", Wrap(log, n.acknowledge, Path()))
			r.Post("/{id}/archive", Wrap(log, n.archive, Path()))
			r.Delete("/{id}", Wrap(log, n.delete, Path()))
			r.With(limit("actions")).Post("/{id}/actions/{actionID}", Wrap(log, n.executeAction, Path(), JSONBody()))
		})

		r.Route("/me/outreach-messages", func(r chi.Router) {
			r.Get("/", Wrap(log, o.inbox, Query()))
			r.Post("/{id}/open", Wrap(log, o.track(outreach.EventOpened), Path()))
			r.Post("/{id}/seen", Wrap(log, o.track(outreach.EventSeen), Path()))
			r.Post("/{id}/click", Wrap(log, o.track(outreach.EventClick), Path()))
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(log, cfg.operatorRoles...))

		r.Post("/notifications", Wrap(log, n.sendTemplate, JSONBody()))
		r.Post("/orgs/{orgID}/notifications", Wrap(log, n.sendToOrg, Path(), JSONBody()))

		r.Route("/outreach", func(r chi.Router) {
			r.Post("/audiences", Wrap(log, o.createAudience, JSONBody()))
			r.Get("/audiences", Wrap(log, o.listAudiences, Query()))
			r.Post("/audiences/preview", Wrap(log, o.preview, JSONBody()))
			r.Get("/audiences/{id}", Wrap(log, o.getAudience, Path()))
			r.Put("/audiences/{id}", Wrap(log, o.updateAudience, Path(), JSONBody()))
			r.Delete("/audiences/{id}", Wrap(log, o.deleteAudience, Path()))

			r.Post("/messages", Wrap(log, o.createMessage, JSONBody()))
			r.Get("/messages", Wrap(log, o.listMessages, Query()))
			r.Get("/messages/{id}", Wrap(log, o.getMessage, Path()))
			r.Put("/messages/{id}", Wrap(log, o.updateMessage, Path(), JSONBody()))
			r.Post("/messages/{id}/send", Wrap(log, o.send, Path()))
			r.Get("/messages/{id}/analytics", Wrap(log, o.analytics, Path()))
		})
	})

	return r
}
