package notifications

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// DefaultCollection is the collection MongoStorage uses unless overridden.
const DefaultCollection = "notifications"

// MongoStorage implements Storage on a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

type MongoStorageOption func(*mongoStorageConfig)

type mongoStorageConfig struct {
	collection string
}

// WithCollection overrides the collection name.
func WithCollection(name string) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// NewMongoStorage returns a storage backed by db.
func NewMongoStorage(db *mongo.Database, opts ...MongoStorageOption) *MongoStorage {
	cfg := mongoStorageConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MongoStorage{coll: db.Collection(cfg.collection)}
}

// EnsureIndexes creates the indexes the queries rely on.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, s.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "recipientModel", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "deliveryStatus", Value: 1}, {Key: "scheduledFor", Value: 1}}},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	)
}

var notDeleted = bson.E{Key: "deletedAt", Value: bson.M{"$exists": false}}

func (s *MongoStorage) Create(ctx context.Context, n Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *MongoStorage) CreateMany(ctx context.Context, ns []Notification) error {
	if len(ns) == 0 {
		return nil
	}
	if _, err := s.coll.InsertMany(ctx, ns, options.InsertMany().SetOrdered(true)); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *MongoStorage) Get(ctx context.Context, id string) (*Notification, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}, notDeleted})
}

func (s *MongoStorage) GetForRecipient(ctx context.Context, id, recipient string) (*Notification, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "recipient", Value: recipient}, notDeleted})
}

func (s *MongoStorage) findOne(ctx context.Context, filter bson.D) (*Notification, error) {
	var n Notification
	if err := s.coll.FindOne(ctx, filter).Decode(&n); err != nil {
		if mongox.IsNoDocuments(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, apperr.Store(err)
	}
	return &n, nil
}

func (s *MongoStorage) UpdateLifecycle(ctx context.Context, n Notification) error {
	set := bson.D{{Key: "status", Value: n.Status}, {Key: "updatedAt", Value: n.UpdatedAt}}
	for _, f := range []struct {
		key string
		at  *time.Time
	}{
		{"readAt", n.ReadAt},
		{"acknowledgedAt", n.AcknowledgedAt},
		{"archivedAt", n.ArchivedAt},
		{"deletedAt", n.DeletedAt},
	} {
		if f.at != nil {
			set = append(set, bson.E{Key: f.key, Value: *f.at})
		}
	}
	return s.updateOne(ctx, n.ID, bson.D{{Key: "$set", Value: set}})
}

func (s *MongoStorage) UpdateDelivery(ctx context.Context, n Notification) error {
	return s.updateOne(ctx, n.ID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "deliveryStatus", Value: n.DeliveryStatus},
		{Key: "deliveryAttempts", Value: n.DeliveryAttempts},
		{Key: "lastDeliveryAttempt", Value: n.LastDeliveryAttempt},
		{Key: "channelResults", Value: n.ChannelResults},
		{Key: "updatedAt", Value: n.UpdatedAt},
	}}})
}

func (s *MongoStorage) UpdateActionResult(ctx context.Context, id string, res ActionResult) error {
	return s.updateOne(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "actionResult", Value: res},
		{Key: "updatedAt", Value: res.ExecutedAt},
	}}})
}

func (s *MongoStorage) updateOne(ctx context.Context, id string, update bson.D) error {
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}, notDeleted}, update)
	if err != nil {
		return apperr.Store(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func recipientFilter(recipient, model string) bson.D {
	filter := bson.D{{Key: "recipient", Value: recipient}}
	if model != "" {
		filter = append(filter, bson.E{Key: "recipientModel", Value: model})
	}
	return append(filter, notDeleted)
}

func (s *MongoStorage) List(ctx context.Context, recipient, model string, opts ListOptions) ([]Notification, error) {
	filter := recipientFilter(recipient, model)
	if opts.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: opts.Status})
	}
	if opts.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: opts.Type})
	}

	find := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(max(opts.Skip, 0))).
		SetLimit(int64(opts.limit()))

	return s.find(ctx, filter, find)
}

func (s *MongoStorage) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]Notification, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Store(err)
	}
	out := []Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, recipient, model string, filter MarkReadFilter, at time.Time) (int64, error) {
	q := append(recipientFilter(recipient, model), bson.E{Key: "status", Value: StatusUnread})
	if len(filter.IDs) > 0 {
		q = append(q, bson.E{Key: "_id", Value: bson.M{"$in": filter.IDs}})
	}
	if filter.Type != "" {
		q = append(q, bson.E{Key: "type", Value: filter.Type})
	}

	res, err := s.coll.UpdateMany(ctx, q, bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: StatusRead},
		{Key: "readAt", Value: at},
		{Key: "updatedAt", Value: at},
	}}})
	if err != nil {
		return 0, apperr.Store(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStorage) CountByStatus(ctx context.Context, recipient, model string) (StatusCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: recipientFilter(recipient, model)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}

	var counts StatusCounts
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return counts, apperr.Store(err)
	}
	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return counts, apperr.Store(err)
	}
	for _, r := range rows {
		counts.add(r.Status, r.Count)
	}
	return counts, nil
}

func (s *MongoStorage) ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	filter := bson.D{
		{Key: "deliveryStatus", Value: DeliveryPending},
		{Key: "scheduledFor", Value: bson.M{"$lte": now}},
		notDeleted,
	}
	find := options.Find().SetSort(bson.D{{Key: "scheduledFor", Value: 1}})
	if limit > 0 {
		find.SetLimit(int64(limit))
	}
	return s.find(ctx, filter, find)
}

func (s *MongoStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.M{"$lte": now}}})
	if err != nil {
		return 0, apperr.Store(err)
	}
	return res.DeletedCount, nil
}

var _ Storage = (*MongoStorage)(nil)
