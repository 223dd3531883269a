// Command notifyd runs the notification engine: the HTTP API, the
// scheduled-dispatch loop and the channel transports.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/audience"
	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/httpapi"
	"github.com/dmitrymomot/notifykit/pkg/httpserver"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/outreach"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
	redisx "github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

func main() {
	var cfg AppConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(httpapi.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("notifyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg AppConfig, log *slog.Logger) error {
	client, err := mongox.New(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			log.Error("mongo disconnect failed", logger.Error(err))
		}
	}()
	db := client.Database(cfg.Mongo.Database)

	noteStore := notifications.NewMongoStorage(db)
	outreachStore := outreach.NewMongoStorage(db)
	if err := noteStore.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := outreachStore.EnsureIndexes(ctx); err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "mongo", Ping: mongox.Healthcheck(client)}}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dispatchOpts, err := deliverers(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	dispatchOpts = append(dispatchOpts,
		notifications.WithChannelTimeout(cfg.ChannelTimeout),
		notifications.WithMetrics(notifications.NewPrometheusMetrics(reg)),
		notifications.WithDispatcherLogger(log),
	)

	var rdb *redis.Client
	if cfg.RedisEnabled {
		if rdb, err = redisx.Connect(ctx, cfg.Redis); err != nil {
			return err
		}
		defer rdb.Close()
		checks = append(checks, httpserver.Check{Name: "redis", Ping: redisx.Healthcheck(rdb)})
	}
	guard, limitStore := coordination(rdb)
	dispatchOpts = append(dispatchOpts, notifications.WithDispatchGuard(guard, cfg.GuardTTL))
	actionLimiter, err := ratelimiter.NewBucket(limitStore, cfg.ActionLimit)
	if err != nil {
		return err
	}

	registry, err := templateRegistry(cfg, log)
	if err != nil {
		return err
	}

	dispatcher := notifications.NewDispatcher(noteStore, dispatchOpts...)
	noteSvc := notifications.NewService(noteStore, dispatcher,
		notifications.WithRegistry(registry),
		notifications.WithOrgDirectory(notifications.NewMongoOrgDirectory(db.Collection(cfg.OrgsCollection))),
		notifications.WithActionExecutor(notifications.NewActionExecutor(noteStore,
			notifications.WithActionBaseURL(cfg.ActionBaseURL),
			notifications.WithActionLogger(log),
		)),
		notifications.WithServiceLogger(log),
	)

	resolver := audience.NewMongoResolver(db.Collection(cfg.UsersCollection), audience.WithResolverLogger(log))
	outreachSvc := outreach.NewService(outreachStore, resolver, noteSvc,
		outreach.WithRecipientCap(cfg.RecipientCap),
		outreach.WithServiceLogger(log),
	)

	scheduler := notifications.NewScheduler(noteSvc,
		notifications.WithSchedulerInterval(cfg.SchedulerInterval),
		notifications.WithDueBatchSize(cfg.DueBatchSize),
		notifications.WithSchedulerLogger(log),
	)

	router := httpapi.NewRouter(noteSvc, outreachSvc,
		httpapi.WithLogger(log),
		httpapi.WithOperatorRoles(cfg.OperatorRoles...),
		httpapi.WithActionBaseURL(cfg.ActionBaseURL),
		httpapi.WithActionLimiter(actionLimiter),
		httpapi.WithRoutes(func(r chi.Router) {
			r.Get("/healthz", httpserver.Liveness())
			r.Get("/readyz", httpserver.Readiness(log, 0, checks...))
			r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		}),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	schedDone := make(chan error, 1)
	go func() { schedDone <- scheduler.Start(ctx) }()

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	runErr := srv.Run(ctx, router)

	cancel()
	if err := <-schedDone; err != nil && !errors.Is(err, context.Canceled) {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func templateRegistry(cfg AppConfig, log *slog.Logger) (*templates.Registry, error) {
	opts := []templates.RegistryOption{templates.WithRegistryLogger(log)}
	if cfg.Templates != "" {
		extra, err := templates.LoadFile(cfg.Templates)
		if err != nil {
			return nil, err
		}
		log.Info("loaded template overrides", logger.Count("templates", len(extra)))
		opts = append(opts, templates.WithTemplates(extra...))
	}
	return templates.DefaultRegistry(opts...), nil
}

// coordination returns the dispatch guard and the rate-limit store. Both
// are shared through Redis when rdb is set and process-local otherwise.
func coordination(rdb *redis.Client) (notifications.DispatchGuard, ratelimiter.Store) {
	if rdb == nil {
		return notifications.NewMemoryDispatchGuard(), ratelimiter.NewMemoryStore()
	}
	return notifications.NewRedisDispatchGuard(rdb, ""), ratelimiter.NewRedisStore(rdb, "")
}
