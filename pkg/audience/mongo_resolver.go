package audience

import (
	"context"
	"iter"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/async"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// MongoResolver resolves filters against a collection of user profiles.
type MongoResolver struct {
	coll *mongo.Collection
	cfg  resolverConfig
}

// NewMongoResolver creates a resolver over the given users collection.
func NewMongoResolver(coll *mongo.Collection, opts ...ResolverOption) *MongoResolver {
	r := &MongoResolver{
		coll: coll,
		cfg:  resolverConfig{sampleFields: DefaultSampleFields, logger: logger.Discard()},
	}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	return r
}

// Resolve counts every match and fetches one page concurrently. The count
// and the page are separate reads, so Total may drift from the ids under
// concurrent writes.
func (r *MongoResolver) Resolve(ctx context.Context, f Filter, opts Options) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	q := f.Query()

	count := async.Async(ctx, q, func(ctx context.Context, q bson.D) (int64, error) {
		return r.coll.CountDocuments(ctx, q)
	})
	page := async.Async(ctx, opts, func(ctx context.Context, opts Options) ([]map[string]any, error) {
		return r.find(ctx, q, opts)
	})

	total, err := count.Await()
	if err != nil {
		return Result{}, apperr.Store(err)
	}
	docs, err := page.Await()
	if err != nil {
		return Result{}, apperr.Store(err)
	}

	res := Result{Total: total, UserIDs: make([]string, 0, len(docs))}
	for _, d := range docs {
		if id := mongox.LookupString(d, "_id"); id != "" {
			res.UserIDs = append(res.UserIDs, id)
		}
	}
	if opts.Preview {
		res.Sample = docs
	}

	r.cfg.logger.LogAttrs(ctx, slog.LevelDebug, "audience resolved",
		logger.Count("total", int(total)),
		logger.Count("page", len(res.UserIDs)),
	)
	return res, nil
}

// Batches streams matching ids in pages of size.
func (r *MongoResolver) Batches(ctx context.Context, f Filter, size int) iter.Seq2[[]string, error] {
	if err := f.Validate(); err != nil {
		return func(yield func([]string, error) bool) { yield(nil, err) }
	}
	q := f.Query()
	return batches(ctx, size, func(ctx context.Context, skip, limit int) ([]string, error) {
		docs, err := r.find(ctx, q, Options{Limit: limit, Skip: skip})
		if err != nil {
			return nil, apperr.Store(err)
		}
		ids := make([]string, 0, len(docs))
		for _, d := range docs {
			if id := mongox.LookupString(d, "_id"); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
}

func (r *MongoResolver) find(ctx context.Context, q bson.D, opts Options) ([]map[string]any, error) {
	projection := bson.D{{Key: "_id", Value: 1}}
	if opts.Preview {
		projection = bson.D{}
		for _, f := range r.cfg.sampleFields {
			projection = append(projection, bson.E{Key: f, Value: 1})
		}
	}

	findOpts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(opts.skip())).
		SetLimit(int64(opts.limit()))

	cur, err := r.coll.Find(ctx, q, findOpts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]map[string]any, len(raw))
	for i, d := range raw {
		docs[i] = map[string]any(d)
	}
	return docs, nil
}
