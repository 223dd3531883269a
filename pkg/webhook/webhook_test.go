package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/webhook"
)

func TestSender_Send(t *testing.T) {
	t.Parallel()

	var got map[string]any
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, webhook.Verify("s3cret", body, r.Header.Get(webhook.SignatureHeader), time.Minute, time.Now()))
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := webhook.NewSender(webhook.WithSigningSecret("s3cret"))
	err := s.Send(context.Background(), srv.URL, "notification.created", map[string]any{"id": "n-1"})
	require.NoError(t, err)
	assert.Equal(t, "n-1", got["id"])
	assert.Equal(t, "notification.created", headers.Get(webhook.EventHeader))
	assert.NotEmpty(t, headers.Get(webhook.DeliveryHeader))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestSender_RetriesTemporaryFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	deliveries := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deliveries <- r.Header.Get(webhook.DeliveryHeader)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := webhook.NewSender(webhook.WithBackoff(webhook.FixedBackoff(time.Millisecond)))
	require.NoError(t, s.Send(context.Background(), srv.URL, "e", map[string]string{"a": "b"}))
	assert.Equal(t, int32(3), calls.Load())

	first := <-deliveries
	assert.Equal(t, first, <-deliveries)
	assert.Equal(t, first, <-deliveries)
}

func TestSender_PermanentFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	s := webhook.NewSender(webhook.WithBackoff(webhook.FixedBackoff(time.Millisecond)))
	err := s.Send(context.Background(), srv.URL, "e", map[string]string{})
	assert.ErrorIs(t, err, webhook.ErrPermanentFailure)
	assert.Contains(t, err.Error(), "410")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSender_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := webhook.NewSender(webhook.WithMaxRetries(2), webhook.WithBackoff(webhook.FixedBackoff(time.Millisecond)))
	err := s.Send(context.Background(), srv.URL, "e", map[string]string{})
	assert.ErrorIs(t, err, webhook.ErrDeliveryFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	s := webhook.NewSender(webhook.WithMaxRetries(0), webhook.WithTimeout(20*time.Millisecond))
	err := s.Send(context.Background(), srv.URL, "e", map[string]string{})
	assert.ErrorIs(t, err, webhook.ErrTimeout)
}

func TestSender_InvalidURL(t *testing.T) {
	t.Parallel()

	s := webhook.NewSender()
	for _, target := range []string{"", "ftp://example.com", "http://"} {
		assert.ErrorIs(t, s.Send(context.Background(), target, "e", 1), webhook.ErrInvalidURL, target)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"a":1}`)
	header := webhook.Sign("key", payload, now)

	tests := []struct {
		name    string
		secret  string
		payload []byte
		header  string
		now     time.Time
		wantErr bool
	}{
		{"valid", "key", payload, header, now.Add(time.Second), false},
		{"wrong secret", "other", payload, header, now, true},
		{"tampered", "key", []byte(`{"a":2}`), header, now, true},
		{"expired", "key", payload, header, now.Add(10 * time.Minute), true},
		{"malformed", "key", payload, "garbage", now, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := webhook.Verify(tt.secret, tt.payload, tt.header, 5*time.Minute, tt.now)
			if tt.wantErr {
				assert.ErrorIs(t, err, webhook.ErrInvalidSignature)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := webhook.ExponentialBackoff{Initial: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, time.Duration(0), b.Delay(0))
	assert.Equal(t, 100*time.Millisecond, b.Delay(1))
	assert.Equal(t, 400*time.Millisecond, b.Delay(3))
	assert.Equal(t, time.Second, b.Delay(10))
	assert.Equal(t, 5*time.Millisecond, webhook.FixedBackoff(5*time.Millisecond).Delay(2))
}
