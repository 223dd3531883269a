package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/httpserver"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func waitUp(t *testing.T, addr string) {
	t.Helper()
	var err error
	for range 50 {
		var resp *http.Response
		resp, err = http.Get("http://" + addr)
		if err == nil {
			require.NoError(t, resp.Body.Close())
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NoError(t, err, "server never came up")
}

func awaitRun(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not return")
	}
}

func TestServer_ContextCancel(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	var started, stopped atomic.Bool
	srv := httpserver.New(
		httpserver.WithAddr(addr),
		httpserver.WithShutdownTimeout(200*time.Millisecond),
		httpserver.WithStartHook(func(*slog.Logger) { started.Store(true) }),
		httpserver.WithStopHook(func(*slog.Logger) { stopped.Store(true) }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, httpserver.Liveness()) }()
	waitUp(t, addr)

	cancel()
	awaitRun(t, done)
	assert.True(t, started.Load())
	assert.True(t, stopped.Load())
	// Shutdown after Run returned is a no-op.
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestServer_ManualShutdown(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	srv := httpserver.New(httpserver.WithAddr(addr))

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), nil) }()
	waitUp(t, addr)

	require.NoError(t, srv.Shutdown(context.Background()))
	awaitRun(t, done)
}

func TestServer_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid address", func(t *testing.T) {
		err := httpserver.New(httpserver.WithAddr(":invalid")).Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)
	})

	t.Run("already running", func(t *testing.T) {
		addr := freeAddr(t)
		srv := httpserver.New(httpserver.WithAddr(addr))
		done := make(chan error, 1)
		go func() { done <- srv.Run(context.Background(), nil) }()
		waitUp(t, addr)

		err := srv.Run(context.Background(), nil)
		assert.ErrorIs(t, err, httpserver.ErrStart)

		require.NoError(t, srv.Shutdown(context.Background()))
		awaitRun(t, done)
	})
}

func TestServer_ConfigTimeouts(t *testing.T) {
	t.Parallel()
	addr := freeAddr(t)
	custom := &http.Server{WriteTimeout: time.Minute}
	srv := httpserver.NewFromConfig(httpserver.Config{
		Addr:              addr,
		ReadTimeout:       time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      3 * time.Second,
		IdleTimeout:       4 * time.Second,
		ShutdownTimeout:   time.Second,
	}, httpserver.WithServer(custom))

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), nil) }()
	waitUp(t, addr)

	assert.Equal(t, addr, custom.Addr)
	assert.Equal(t, time.Second, custom.ReadTimeout)
	assert.Equal(t, 2*time.Second, custom.ReadHeaderTimeout)
	assert.Equal(t, time.Minute, custom.WriteTimeout, "preset values win")
	assert.Equal(t, 4*time.Second, custom.IdleTimeout)

	require.NoError(t, srv.Shutdown(context.Background()))
	awaitRun(t, done)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()
	tests := map[string]func(){
		"empty addr":       func() { httpserver.WithAddr("") },
		"read timeout":     func() { httpserver.WithReadTimeout(0) },
		"header timeout":   func() { httpserver.WithReadHeaderTimeout(-1) },
		"write timeout":    func() { httpserver.WithWriteTimeout(0) },
		"idle timeout":     func() { httpserver.WithIdleTimeout(0) },
		"shutdown timeout": func() { httpserver.WithShutdownTimeout(0) },
		"nil server":       func() { httpserver.WithServer(nil) },
		"nil start hook":   func() { httpserver.WithStartHook(nil) },
		"nil stop hook":    func() { httpserver.WithStopHook(nil) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, fn)
		})
	}
}

func TestReadiness(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name   string
		checks []httpserver.Check
		status int
		report httpserver.HealthReport
	}{
		{
			name:   "no checks",
			status: http.StatusOK,
			report: httpserver.HealthReport{Status: "ready"},
		},
		{
			name:   "all healthy",
			checks: []httpserver.Check{{Name: "mongo", Ping: ok}, {Name: "redis", Ping: ok}},
			status: http.StatusOK,
			report: httpserver.HealthReport{Status: "ready", Checks: map[string]string{"mongo": "ok", "redis": "ok"}},
		},
		{
			name:   "one failing",
			checks: []httpserver.Check{{Name: "mongo", Ping: ok}, {Name: "redis", Ping: down}},
			status: http.StatusServiceUnavailable,
			report: httpserver.HealthReport{Status: "not_ready", Checks: map[string]string{"mongo": "ok", "redis": "fail"}},
		},
		{
			name:   "timeout",
			checks: []httpserver.Check{{Name: "mongo", Ping: slow}},
			status: http.StatusServiceUnavailable,
			report: httpserver.HealthReport{Status: "not_ready", Checks: map[string]string{"mongo": "fail"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpserver.Readiness(nil, 50*time.Millisecond, tt.checks...)
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.status, rec.Code)
			var got httpserver.HealthReport
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			if len(got.Checks) == 0 {
				got.Checks = nil
			}
			assert.Equal(t, tt.report, got)
		})
	}
}

func TestLiveness(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
