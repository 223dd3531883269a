package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/async"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// DefaultChannelTimeout bounds a single channel delivery.
const DefaultChannelTimeout = 10 * time.Second

// Dispatcher fans a notification out to its channels.
type Dispatcher struct {
	store      Storage
	deliverers map[Channel]Deliverer
	timeout    time.Duration
	guard      DispatchGuard
	guardTTL   time.Duration
	metrics    Metrics
	logger     *slog.Logger
	now        func() time.Time
}

type DispatcherOption func(*Dispatcher)

// WithDeliverer registers d for channel ch, replacing any previous one.
func WithDeliverer(ch Channel, d Deliverer) DispatcherOption {
	return func(disp *Dispatcher) {
		if d != nil {
			disp.deliverers[ch] = d
		}
	}
}

// WithChannelTimeout sets the per-channel deadline. Zero disables it.
func WithChannelTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d >= 0 {
			disp.timeout = d
		}
	}
}

// WithDispatchGuard locks each notification for ttl while it is being
// dispatched and re-reads it under the lock.
func WithDispatchGuard(g DispatchGuard, ttl time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.guard = g
		if ttl > 0 {
			disp.guardTTL = ttl
		}
	}
}

func WithMetrics(m Metrics) DispatcherOption {
	return func(disp *Dispatcher) {
		if m != nil {
			disp.metrics = m
		}
	}
}

func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(disp *Dispatcher) {
		if log != nil {
			disp.logger = log
		}
	}
}

// WithDispatcherClock replaces time.Now.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(disp *Dispatcher) {
		if now != nil {
			disp.now = now
		}
	}
}

// NewDispatcher returns a dispatcher writing delivery state to store. The
// in_app channel is always registered.
func NewDispatcher(store Storage, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:      store,
		deliverers: map[Channel]Deliverer{ChannelInApp: InAppDeliverer{}},
		timeout:    DefaultChannelTimeout,
		guardTTL:   DefaultGuardTTL,
		metrics:    NoopMetrics{},
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers n to every channel and records the outcome on n and in
// the store. Channel failures are logged and recorded in ChannelResults but
// never returned; only a failure to persist the result is. A notification
// that is already sent is left alone.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) error {
	if n.DeliveryStatus == DeliverySent {
		return nil
	}
	if d.guard == nil {
		return d.dispatch(ctx, n)
	}

	release, ok, err := d.guard.Acquire(ctx, n.ID, d.guardTTL)
	if err != nil {
		return apperr.Store(fmt.Errorf("acquire dispatch lock: %w", err))
	}
	if !ok {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification is being dispatched elsewhere",
			logger.NotificationID(n.ID),
		)
		return nil
	}
	defer release()

	cur, err := d.store.Get(ctx, n.ID)
	if err != nil {
		return err
	}
	*n = *cur
	if n.DeliveryStatus == DeliverySent {
		return nil
	}
	return d.dispatch(ctx, n)
}

// DispatchByID loads the notification and dispatches it.
func (d *Dispatcher) DispatchByID(ctx context.Context, id string) (*Notification, error) {
	n, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Dispatch(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, n *Notification) error {
	now := d.now()
	n.DeliveryAttempts++
	n.LastDeliveryAttempt = &now

	// Channels receive a copy; n is only written after all of them settle.
	view := *n
	outcomes := async.Settle(ctx, d.timeout, n.Channels, func(ctx context.Context, ch Channel) (struct{}, error) {
		return struct{}{}, d.deliver(ctx, ch, view)
	})

	results := make([]ChannelResult, len(outcomes))
	for i, o := range outcomes {
		ch := n.Channels[i]
		res := ChannelResult{Channel: ch, Outcome: OutcomeDelivered, Duration: o.Duration, At: now}

		switch {
		case o.Err == nil:
		case errors.Is(o.Err, ErrSkipped):
			res.Outcome = OutcomeSkipped
		default:
			res.Outcome = OutcomeFailed
			res.Error = o.Err.Error()
			d.logger.LogAttrs(ctx, slog.LevelWarn, "channel delivery failed",
				logger.NotificationID(n.ID),
				logger.RecipientID(n.Recipient, n.RecipientModel),
				logger.Channel(string(ch)),
				logger.Duration(o.Duration),
				logger.Error(fmt.Errorf("%w: %w", ErrDeliveryFailed, o.Err)),
			)
		}

		d.metrics.ChannelDelivered(ch, res.Outcome, o.Duration)
		results[i] = res
	}

	n.ChannelResults = results
	n.DeliveryStatus = DeliverySent
	n.UpdatedAt = d.now()

	if err := d.store.UpdateDelivery(ctx, *n); err != nil {
		n.DeliveryStatus = DeliveryFailed
		if err2 := d.store.UpdateDelivery(context.WithoutCancel(ctx), *n); err2 != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "failed to record failed delivery",
				logger.NotificationID(n.ID),
				logger.Errors(err, err2),
			)
		}
		d.metrics.Dispatched(DeliveryFailed)
		return apperr.Store(err)
	}

	d.metrics.Dispatched(DeliverySent)
	d.logger.LogAttrs(ctx, slog.LevelDebug, "notification dispatched",
		logger.NotificationID(n.ID),
		logger.Count("channels", len(n.Channels)),
		logger.Count("attempt", n.DeliveryAttempts),
	)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, n Notification) error {
	del, ok := d.deliverers[ch]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch)
	}
	return del.Deliver(ctx, n)
}
