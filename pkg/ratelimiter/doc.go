// Package ratelimiter throttles callers with a token bucket.
//
// A Bucket holds Capacity tokens and regains RefillRate of them every
// RefillInterval. Each Allow takes one token; a denied call takes none.
// State lives in a Store: MemoryStore for a single process, RedisStore to
// share buckets between replicas through an atomic Lua script.
//
//	b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(rdb, ""), cfg.RateLimit)
//	res, err := b.Allow(ctx, "actions:"+userID)
//	if !res.Allowed {
//		// retry after res.RetryAfter(time.Now())
//	}
package ratelimiter
