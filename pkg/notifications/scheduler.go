package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

const (
	DefaultSchedulerInterval = 30 * time.Second
	DefaultDueBatchSize      = 100
)

// Scheduler periodically dispatches due notifications and removes expired
// ones.
type Scheduler struct {
	service  *Service
	interval time.Duration
	batch    int
	cleanup  bool
	logger   *slog.Logger
}

type SchedulerOption func(*Scheduler)

// WithSchedulerInterval sets the tick interval.
func WithSchedulerInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDueBatchSize limits how many due notifications one tick dispatches.
func WithDueBatchSize(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.batch = n
		}
	}
}

// WithExpiredCleanup toggles removal of expired notifications on each tick.
func WithExpiredCleanup(enabled bool) SchedulerOption {
	return func(s *Scheduler) { s.cleanup = enabled }
}

func WithSchedulerLogger(log *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewScheduler(service *Service, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		service:  service,
		interval: DefaultSchedulerInterval,
		batch:    DefaultDueBatchSize,
		cleanup:  true,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs a tick immediately and then on every interval until ctx is
// done. It returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.LogAttrs(ctx, slog.LevelInfo, "notification scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()

	n, err := s.service.DispatchDue(ctx, s.batch)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to dispatch due notifications",
			logger.Count("dispatched", n),
			logger.Error(err),
		)
	} else if n > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "dispatched due notifications",
			logger.Count("dispatched", n),
			logger.Duration(time.Since(start)),
		)
	}

	if !s.cleanup {
		return
	}
	removed, err := s.service.CleanupExpired(ctx)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to remove expired notifications", logger.Error(err))
		return
	}
	if removed > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "removed expired notifications", logger.Count("removed", int(removed)))
	}
}
