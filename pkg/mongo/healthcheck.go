package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

// Healthcheck pings the primary; notification writes need it, so a
// secondary alone does not count as ready.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return apperr.Store(errors.Join(ErrHealthcheckFailed, err))
		}
		return nil
	}
}
