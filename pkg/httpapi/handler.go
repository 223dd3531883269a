package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Caller identifies who makes a request. The upstream auth proxy supplies
// it through request headers.
type Caller struct {
	ID    string
	Model string
	Roles []string
}

func (c Caller) HasRole(roles ...string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool { return slices.Contains(roles, r) })
}

// Context wraps the request, its writer and the caller.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Caller() Caller
}

type httpContext struct {
	w http.ResponseWriter
	r *http.Request
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }
func (c *httpContext) Caller() Caller                      { return CallerFromContext(c.r.Context()) }

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *httpContext) Err() error                  { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any           { return c.r.Context().Value(key) }

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// HandlerFunc handles a request bound into R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Bind parses a request into v.
type Bind func(r *http.Request, v any) error

// Wrap converts a typed handler into an http.HandlerFunc. Binders run in
// order; the first failure is rendered as an error response.
func Wrap[R any](log *slog.Logger, h HandlerFunc[R], binders ...Bind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := &httpContext{w: w, r: r}

		var req R
		for _, bind := range binders {
			if err := bind(r, &req); err != nil {
				renderError(log, w, r, err)
				return
			}
		}

		resp := h(ctx, req)
		if resp == nil {
			resp = Empty()
		}
		if e, ok := resp.(errorResponse); ok {
			renderError(log, w, r, e.err)
			return
		}
		if err := resp.Render(w, r); err != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render response",
				slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		}
	}
}

type callerKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
