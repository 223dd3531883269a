package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
)

// RateLimit throttles each caller on the wrapped routes. Keys are scoped by
// name so separate groups keep separate buckets. A failing store lets the
// request through.
func RateLimit(log *slog.Logger, name string, l ratelimiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := CallerFromContext(r.Context()).ID
			if key == "" {
				key = r.RemoteAddr
			}
			res, err := l.Allow(r.Context(), name+":"+key)
			if err != nil {
				log.LogAttrs(r.Context(), slog.LevelError, "rate limiter unavailable",
					logger.Component("httpapi"),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				if wait := res.RetryAfter(time.Now()); wait > 0 {
					h.Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second).Seconds())))
				}
				renderError(log, w, r, ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
