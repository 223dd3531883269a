package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

// Healthcheck pings the server backing the dispatch guard and rate limits.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return apperr.Store(errors.Join(ErrHealthcheckFailed, err))
		}
		return nil
	}
}
