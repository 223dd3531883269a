package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
	"github.com/dmitrymomot/notifykit/pkg/templates"
	"github.com/dmitrymomot/notifykit/pkg/validator"
)

// MaxListLimit caps a single page of List.
const MaxListLimit = 100

// Recipient identifies a notification target.
type Recipient struct {
	ID    string `json:"id"`
	Model string `json:"model"`
}

// Service is the entry point for creating and managing notifications.
type Service struct {
	store      Storage
	dispatcher *Dispatcher
	registry   *templates.Registry
	renderer   *templates.Renderer
	actions    *ActionExecutor
	orgs       OrgDirectory
	logger     *slog.Logger
	now        func() time.Time
}

type ServiceOption func(*Service)

// WithRegistry sets the template registry. Defaults to the built-in catalog.
func WithRegistry(r *templates.Registry) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

func WithRenderer(r *templates.Renderer) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

func WithActionExecutor(e *ActionExecutor) ServiceOption {
	return func(s *Service) {
		if e != nil {
			s.actions = e
		}
	}
}

// WithOrgDirectory enables SendToOrgMembers.
func WithOrgDirectory(d OrgDirectory) ServiceOption {
	return func(s *Service) { s.orgs = d }
}

func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithServiceClock replaces time.Now.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds a service over store. A nil dispatcher dispatches to
// in_app only.
func NewService(store Storage, dispatcher *Dispatcher, opts ...ServiceOption) *Service {
	if dispatcher == nil {
		dispatcher = NewDispatcher(store)
	}
	s := &Service{
		store:      store,
		dispatcher: dispatcher,
		registry:   templates.DefaultRegistry(),
		renderer:   templates.NewRenderer(),
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.actions == nil {
		s.actions = NewActionExecutor(store, WithActionLogger(s.logger))
	}
	return s
}

// Create stores n and, unless it is scheduled for later, dispatches it
// before returning so the caller sees the final delivery status.
func (s *Service) Create(ctx context.Context, n Notification) (*Notification, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	n.normalize(now)

	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	if n.IsDue(now) {
		if err := s.dispatcher.Dispatch(ctx, &n); err != nil {
			return &n, err
		}
	}
	return &n, nil
}

// CreateBatch validates every notification, stores them together and
// dispatches the due ones one after another.
func (s *Service) CreateBatch(ctx context.Context, ns []Notification) ([]Notification, error) {
	created, err := s.InsertBatch(ctx, ns)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var errs []error
	for i := range created {
		if !created[i].IsDue(now) {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, &created[i]); err != nil {
			errs = append(errs, fmt.Errorf("dispatch %s: %w", created[i].ID, err))
		}
	}
	return created, errors.Join(errs...)
}

// InsertBatch validates and stores notifications without dispatching them.
func (s *Service) InsertBatch(ctx context.Context, ns []Notification) ([]Notification, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	now := s.now()
	out := make([]Notification, len(ns))
	for i, n := range ns {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("notification %d: %w", i, err)
		}
		n.normalize(now)
		out[i] = n
	}
	if err := s.store.CreateMany(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendToMultiple creates a copy of n for every recipient.
func (s *Service) SendToMultiple(ctx context.Context, recipients []Recipient, n Notification) ([]Notification, error) {
	ns := make([]Notification, 0, len(recipients))
	for _, r := range recipients {
		c := clone(n)
		c.ID = ""
		c.Recipient = r.ID
		c.RecipientModel = r.Model
		ns = append(ns, c)
	}
	return s.CreateBatch(ctx, ns)
}

// SendToOrgMembers creates a copy of n for every member of the
// organization, optionally limited to the given roles. Each copy carries
// orgId and memberRole in its metadata.
func (s *Service) SendToOrgMembers(ctx context.Context, orgID string, n Notification, roles ...string) ([]Notification, error) {
	if s.orgs == nil {
		return nil, fmt.Errorf("%w: no organization directory configured", ErrOrgNotFound)
	}
	members, err := s.orgs.Members(ctx, orgID)
	if err != nil {
		return nil, err
	}

	ns := make([]Notification, 0, len(members))
	for _, m := range members {
		if len(roles) > 0 && !slices.Contains(roles, m.Role) {
			continue
		}
		c := clone(n)
		c.ID = ""
		c.Recipient = m.UserID
		c.RecipientModel = "User"
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.Metadata["orgId"] = orgID
		c.Metadata["memberRole"] = m.Role
		ns = append(ns, c)
	}
	return s.CreateBatch(ctx, ns)
}

// SendTemplateToOrgMembers renders the named template once and sends it
// to the organization's members through SendToOrgMembers.
func (s *Service) SendTemplateToOrgMembers(ctx context.Context, orgID, name string, vars templates.Vars, roles ...string) ([]Notification, error) {
	if err := validator.Apply(
		validator.Required("orgId", orgID),
		validator.Required("template", name),
	); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
	}
	tpl, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.SendToOrgMembers(ctx, orgID, s.fromTemplate(ctx, Recipient{}, tpl, vars), roles...)
}

// CreateFromTemplate renders the named template and creates the result
// for one recipient.
func (s *Service) CreateFromTemplate(ctx context.Context, r Recipient, name string, vars templates.Vars) (*Notification, error) {
	tpl, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, s.fromTemplate(ctx, r, tpl, vars))
}

// CreateFromAdvancedTemplate is CreateFromTemplate with the advanced
// fallback template and action conditions applied.
func (s *Service) CreateFromAdvancedTemplate(ctx context.Context, r Recipient, name string, vars templates.Vars) (*Notification, error) {
	tpl, err := s.registry.GetAdvanced(ctx, name)
	if err != nil {
		return nil, err
	}
	tpl.Advanced = true
	return s.Create(ctx, s.fromTemplate(ctx, r, tpl, vars))
}

// CreateBatchFromTemplate renders the template once and creates a copy for
// every recipient.
func (s *Service) CreateBatchFromTemplate(ctx context.Context, recipients []Recipient, name string, vars templates.Vars) ([]Notification, error) {
	tpl, err := s.registry.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	base := s.fromTemplate(ctx, Recipient{}, tpl, vars)
	return s.SendToMultiple(ctx, recipients, base)
}

func (s *Service) fromTemplate(ctx context.Context, r Recipient, tpl templates.Template, vars templates.Vars) Notification {
	out := s.renderer.Render(ctx, tpl, vars)

	priority := Priority(out.Priority)
	if !priority.valid() {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "template rendered an unknown priority",
			logger.Template(tpl.Name),
			slog.String("priority", out.Priority),
		)
		priority = PriorityNormal
	}
	snapshot := out.Snapshot

	return Notification{
		Recipient:      r.ID,
		RecipientModel: r.Model,
		Sender:         out.Sender,
		SenderModel:    out.SenderModel,
		Type:           out.Type,
		Title:          out.Title,
		Message:        out.Message,
		Template:       &snapshot,
		Actions:        out.Actions,
		Priority:       priority,
		Channels:       Channels(out.Channels...),
		Metadata:       out.Metadata,
	}
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, recipient, model string, opts ListOptions) ([]Notification, error) {
	opts.Limit = sanitizer.Clamp(opts.Limit, 0, MaxListLimit)
	opts.Skip = max(opts.Skip, 0)
	return s.store.List(ctx, recipient, model, opts)
}

func (s *Service) UnreadCount(ctx context.Context, recipient, model string) (int64, error) {
	counts, err := s.store.CountByStatus(ctx, recipient, model)
	if err != nil {
		return 0, err
	}
	return counts.Unread, nil
}

// Statistics returns per-status counts for the recipient.
func (s *Service) Statistics(ctx context.Context, recipient, model string) (StatusCounts, error) {
	return s.store.CountByStatus(ctx, recipient, model)
}

func (s *Service) MarkRead(ctx context.Context, id, recipient string) (*Notification, error) {
	return s.transition(ctx, id, recipient, StatusRead)
}

func (s *Service) Acknowledge(ctx context.Context, id, recipient string) (*Notification, error) {
	return s.transition(ctx, id, recipient, StatusAcknowledged)
}

func (s *Service) Archive(ctx context.Context, id, recipient string) (*Notification, error) {
	return s.transition(ctx, id, recipient, StatusArchived)
}

func (s *Service) transition(ctx context.Context, id, recipient string, to Status) (*Notification, error) {
	n, err := s.store.GetForRecipient(ctx, id, recipient)
	if err != nil {
		return nil, err
	}
	changed, err := n.Transition(to, s.now())
	if err != nil || !changed {
		return n, err
	}
	if err := s.store.UpdateLifecycle(ctx, *n); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkManyRead marks the given notifications of the recipient as read.
func (s *Service) MarkManyRead(ctx context.Context, recipient, model string, ids []string) (int64, error) {
	ids = sanitizer.DeduplicateStrings(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	return s.store.MarkRead(ctx, recipient, model, MarkReadFilter{IDs: ids}, s.now())
}

// MarkAllRead marks every unread notification of the recipient as read,
// optionally only those of type typ.
func (s *Service) MarkAllRead(ctx context.Context, recipient, model, typ string) (int64, error) {
	return s.store.MarkRead(ctx, recipient, model, MarkReadFilter{Type: typ}, s.now())
}

// Delete soft-deletes the recipient's notification.
func (s *Service) Delete(ctx context.Context, id, recipient string) error {
	n, err := s.store.GetForRecipient(ctx, id, recipient)
	if err != nil {
		return err
	}
	now := s.now()
	n.DeletedAt = &now
	n.UpdatedAt = now
	return s.store.UpdateLifecycle(ctx, *n)
}

func (s *Service) ExecuteAction(ctx context.Context, id, actionID, recipient string, data map[string]any, auth *AuthContext) (*ActionResult, error) {
	return s.actions.Execute(ctx, id, actionID, recipient, maps.Clone(data), auth)
}

func (s *Service) DispatchByID(ctx context.Context, id string) (*Notification, error) {
	return s.dispatcher.DispatchByID(ctx, id)
}

// DispatchDue dispatches up to limit scheduled notifications whose time has
// come and returns how many were processed.
func (s *Service) DispatchDue(ctx context.Context, limit int) (int, error) {
	due, err := s.store.ListDue(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	var (
		done int
		errs []error
	)
	for i := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.dispatcher.Dispatch(ctx, &due[i]); err != nil {
			errs = append(errs, fmt.Errorf("dispatch %s: %w", due[i].ID, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// CleanupExpired hard-deletes notifications past their expiry.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperr.Store(err)
	}
	return n, nil
}
