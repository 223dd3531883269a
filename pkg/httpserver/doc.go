// Package httpserver runs the notifykit HTTP API with graceful shutdown.
//
// Server.Run blocks until its context ends, SIGINT or SIGTERM arrives, or
// Shutdown is called, then drains in-flight requests within the shutdown
// timeout. Listen and shutdown failures are wrapped in ErrStart and
// ErrShutdown.
//
// Liveness and Readiness provide health handlers; readiness runs named
// dependency checks such as the MongoDB and Redis pings concurrently:
//
//	r.Get("/healthz", httpserver.Liveness())
//	r.Get("/readyz", httpserver.Readiness(log, 2*time.Second,
//		httpserver.Check{Name: "mongo", Ping: mongox.Healthcheck(client)},
//	))
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
