package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/async"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 3 * time.Second

// Check is a named dependency health check, such as a database ping.
type Check struct {
	Name string
	Ping func(context.Context) error
}

// HealthReport is the readiness response body.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Liveness always answers 200 while the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, http.StatusOK, HealthReport{Status: "alive"})
	}
}

// Readiness runs every check concurrently, each bounded by timeout, and
// answers 503 when any of them fails. A timeout of zero uses
// DefaultCheckTimeout.
func Readiness(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		outcomes := async.Settle(ctx, timeout, checks, func(ctx context.Context, c Check) (struct{}, error) {
			return struct{}{}, c.Ping(ctx)
		})

		report := HealthReport{Status: "ready", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for i, o := range outcomes {
			name := checks[i].Name
			if o.Err == nil {
				report.Checks[name] = "ok"
				continue
			}
			report.Checks[name] = "fail"
			report.Status = "not_ready"
			status = http.StatusServiceUnavailable
			log.LogAttrs(ctx, slog.LevelError, "readiness check failed",
				slog.String("check", name),
				logger.Duration(o.Duration),
				logger.Error(o.Err),
			)
		}
		writeReport(w, status, report)
	}
}

func writeReport(w http.ResponseWriter, status int, report HealthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
