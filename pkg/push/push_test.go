package push_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/push"
)

const token = "ExponentPushToken[abc123]"

func TestIsExpoToken(t *testing.T) {
	t.Parallel()

	assert.True(t, push.IsExpoToken(token))
	assert.True(t, push.IsExpoToken("ExpoPushToken[x]"))
	assert.False(t, push.IsExpoToken("ExponentPushToken[]"))
	assert.False(t, push.IsExpoToken("fcm-token"))
	assert.False(t, push.IsExpoToken(""))
}

func TestExpoClient_Send(t *testing.T) {
	t.Parallel()

	var received []push.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"data":[{"status":"ok","id":"t-1"},{"status":"error","message":"gone","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	client := push.NewExpoClient(push.Config{URL: srv.URL, AccessToken: "tok"})
	tickets, err := client.Send(context.Background(),
		push.Message{To: token, Title: "Hi", Data: map[string]any{"notificationId": "n-1"}},
		push.Message{To: "ExpoPushToken[dead]", Body: "Hello"},
	)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.True(t, tickets[0].OK())
	assert.Equal(t, "t-1", tickets[0].ID)
	assert.False(t, tickets[1].OK())
	assert.Equal(t, "DeviceNotRegistered", tickets[1].ErrorCode())

	require.Len(t, received, 2)
	assert.Equal(t, "n-1", received[0].Data["notificationId"])
}

func TestExpoClient_SendErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid message", func(t *testing.T) {
		t.Parallel()
		client := push.NewExpoClient(push.Config{URL: "http://127.0.0.1:1"})
		_, err := client.Send(context.Background(), push.Message{To: "nope", Title: "x"})
		assert.ErrorIs(t, err, push.ErrInvalidMessage)
		_, err = client.Send(context.Background(), push.Message{To: token})
		assert.ErrorIs(t, err, push.ErrInvalidMessage)
	})

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := push.NewExpoClient(push.Config{URL: srv.URL}).Send(context.Background(), push.Message{To: token, Title: "x"})
		assert.ErrorIs(t, err, push.ErrSendFailed)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("request level error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"errors":[{"code":"PUSH_TOO_MANY_EXPERIENCE_IDS","message":"mixed projects"}]}`))
		}))
		defer srv.Close()
		_, err := push.NewExpoClient(push.Config{URL: srv.URL}).Send(context.Background(), push.Message{To: token, Title: "x"})
		assert.ErrorIs(t, err, push.ErrSendFailed)
		assert.Contains(t, err.Error(), "PUSH_TOO_MANY_EXPERIENCE_IDS")
	})

	t.Run("no messages", func(t *testing.T) {
		t.Parallel()
		tickets, err := push.NewExpoClient(push.Config{}).Send(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, tickets)
	})
}
