// Package logger builds slog loggers and provides the attribute helpers used
// across notifykit.
//
// Loggers are JSON by default. WithEnvironment switches to text output at
// debug level for development:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "notifyd"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers return an empty slog.Attr for empty input, which slog
// skips, so call sites never need nil checks:
//
//	log.LogAttrs(ctx, slog.LevelError, "channel delivery failed",
//		logger.NotificationID(n.ID),
//		logger.Channel("email"),
//		logger.Error(err),
//	)
package logger
