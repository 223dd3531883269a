package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/ratelimiter"
)

func TestCoordination(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tests := []struct {
		name      string
		rdb       *redis.Client
		wantGuard notifications.DispatchGuard
		wantStore ratelimiter.Store
	}{
		{"without redis", nil, &notifications.MemoryDispatchGuard{}, &ratelimiter.MemoryStore{}},
		{"with redis", rdb, &notifications.RedisDispatchGuard{}, &ratelimiter.RedisStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			guard, store := coordination(tt.rdb)
			assert.IsType(t, tt.wantGuard, guard)
			assert.IsType(t, tt.wantStore, store)

			key := "dispatch:" + tt.name
			release, ok, err := guard.Acquire(ctx, key, time.Minute)
			require.NoError(t, err)
			require.True(t, ok)
			_, ok, err = guard.Acquire(ctx, key, time.Minute)
			require.NoError(t, err)
			assert.False(t, ok, "second dispatch must be refused while the first holds the lock")
			release()

			cfg := ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute}
			res, err := store.Take(ctx, "actions:u1", 1, cfg, time.Now())
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}
