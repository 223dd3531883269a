package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultGuardTTL bounds how long a dispatch lock is held if its owner dies.
const DefaultGuardTTL = time.Minute

// DispatchGuard serialises dispatch of the same notification across
// workers. Acquire reports false when another holder owns the key.
type DispatchGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// MemoryDispatchGuard guards within a single process.
type MemoryDispatchGuard struct {
	mu    sync.Mutex
	locks map[string]memoryLock
	now   func() time.Time
}

type memoryLock struct {
	token   string
	expires time.Time
}

func NewMemoryDispatchGuard() *MemoryDispatchGuard {
	return &MemoryDispatchGuard{locks: make(map[string]memoryLock), now: time.Now}
}

func (g *MemoryDispatchGuard) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if l, ok := g.locks[key]; ok && now.Before(l.expires) {
		return func() {}, false, nil
	}

	token := uuid.NewString()
	g.locks[key] = memoryLock{token: token, expires: now.Add(ttl)}

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if l, ok := g.locks[key]; ok && l.token == token {
			delete(g.locks, key)
		}
	}, true, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDispatchGuard guards across processes with SET NX PX.
type RedisDispatchGuard struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDispatchGuard stores locks under prefix; an empty prefix uses
// "notifykit:dispatch:".
func NewRedisDispatchGuard(client redis.UniversalClient, prefix string) *RedisDispatchGuard {
	if prefix == "" {
		prefix = "notifykit:dispatch:"
	}
	return &RedisDispatchGuard{client: client, prefix: prefix}
}

func (g *RedisDispatchGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	k := g.prefix + key

	ok, err := g.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !ok {
		return func() {}, false, nil
	}

	return func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), g.client, []string{k}, token).Err()
	}, true, nil
}
