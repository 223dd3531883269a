package outreach

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// DefaultCollectionPrefix names the outreach collections:
// <prefix>audiences, <prefix>messages and <prefix>receipts.
const DefaultCollectionPrefix = "outreach_"

// MongoStorage implements Storage on three MongoDB collections.
type MongoStorage struct {
	audiences *mongo.Collection
	messages  *mongo.Collection
	receipts  *mongo.Collection
}

type MongoStorageOption func(*mongoStorageConfig)

type mongoStorageConfig struct {
	prefix string
}

// WithCollectionPrefix overrides the collection name prefix.
func WithCollectionPrefix(prefix string) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		c.prefix = prefix
	}
}

func NewMongoStorage(db *mongo.Database, opts ...MongoStorageOption) *MongoStorage {
	cfg := mongoStorageConfig{prefix: DefaultCollectionPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MongoStorage{
		audiences: db.Collection(cfg.prefix + "audiences"),
		messages:  db.Collection(cfg.prefix + "messages"),
		receipts:  db.Collection(cfg.prefix + "receipts"),
	}
}

// EnsureIndexes creates the indexes the queries rely on, including the
// unique (messageId, userId) receipt index.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	byCreator := mongo.IndexModel{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}}
	if err := mongox.EnsureIndexes(ctx, s.audiences, byCreator); err != nil {
		return err
	}
	if err := mongox.EnsureIndexes(ctx, s.messages,
		byCreator,
		mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "audienceId", Value: 1}}},
	); err != nil {
		return err
	}
	return mongox.EnsureIndexes(ctx, s.receipts,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "messageId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	)
}

var newestSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.D, skip, limit int) ([]T, int64, error) {
	find := options.Find().SetSort(newestSort).SetSkip(int64(max(skip, 0)))
	if limit > 0 {
		find.SetLimit(int64(limit))
	}
	cur, err := coll.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, apperr.Store(err)
	}
	var items []T
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, apperr.Store(err)
	}
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store(err)
	}
	return items, total, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string, notFound error) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&v); err != nil {
		if mongox.IsNoDocuments(err) {
			return nil, notFound
		}
		return nil, apperr.Store(err)
	}
	return &v, nil
}

func (s *MongoStorage) CreateAudience(ctx context.Context, a Audience) error {
	if _, err := s.audiences.InsertOne(ctx, a); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *MongoStorage) GetAudience(ctx context.Context, id string) (*Audience, error) {
	return findByID[Audience](ctx, s.audiences, id, ErrAudienceNotFound)
}

func (s *MongoStorage) UpdateAudience(ctx context.Context, a Audience) error {
	res, err := s.audiences.ReplaceOne(ctx, bson.D{{Key: "_id", Value: a.ID}}, a)
	if err != nil {
		return apperr.Store(err)
	}
	if res.MatchedCount == 0 {
		return ErrAudienceNotFound
	}
	return nil
}

func (s *MongoStorage) DeleteAudience(ctx context.Context, id string) error {
	res, err := s.audiences.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return apperr.Store(err)
	}
	if res.DeletedCount == 0 {
		return ErrAudienceNotFound
	}
	return nil
}

func (s *MongoStorage) ListAudiences(ctx context.Context, q ListQuery) ([]Audience, int64, error) {
	filter := bson.D{}
	if search := strings.TrimSpace(q.Search); search != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(search)},
			{Key: "$options", Value: "i"},
		}})
	}
	return findPage[Audience](ctx, s.audiences, filter, q.Skip, q.Limit)
}

func (s *MongoStorage) CreateMessage(ctx context.Context, m Message) error {
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		return apperr.Store(err)
	}
	return nil
}

func (s *MongoStorage) GetMessage(ctx context.Context, id string) (*Message, error) {
	return findByID[Message](ctx, s.messages, id, ErrMessageNotFound)
}

func (s *MongoStorage) MessagesByID(ctx context.Context, ids []string) ([]Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.messages.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, apperr.Store(err)
	}
	var out []Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (s *MongoStorage) UpdateDraft(ctx context.Context, m Message) error {
	m.Status = StatusDraft
	res, err := s.messages.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.ID}, {Key: "status", Value: StatusDraft}}, m)
	if err != nil {
		return apperr.Store(err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetMessage(ctx, m.ID); err != nil {
			return err
		}
		return ErrNotDraft
	}
	return nil
}

func (s *MongoStorage) ListMessages(ctx context.Context, q ListQuery) ([]Message, int64, error) {
	filter := bson.D{}
	if q.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: q.Status})
	}
	return findPage[Message](ctx, s.messages, filter, q.Skip, q.Limit)
}

func (s *MongoStorage) ClaimSend(ctx context.Context, id string, at time.Time) (*Message, error) {
	var m Message
	err := s.messages.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: StatusDraft}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: StatusSent},
			{Key: "sentAt", Value: at},
			{Key: "updatedAt", Value: at},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !mongox.IsNoDocuments(err) {
		return nil, apperr.Store(err)
	}
	if _, err := s.GetMessage(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrAlreadySent
}

func (s *MongoStorage) ReleaseSend(ctx context.Context, id string) error {
	res, err := s.messages.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{
		{Key: "$set", Value: bson.D{{Key: "status", Value: StatusDraft}}},
		{Key: "$unset", Value: bson.D{{Key: "sentAt", Value: ""}}},
	})
	if err != nil {
		return apperr.Store(err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *MongoStorage) InsertReceipts(ctx context.Context, rs []Receipt) error {
	if len(rs) == 0 {
		return nil
	}
	_, err := s.receipts.InsertMany(ctx, rs, options.InsertMany().SetOrdered(false))
	if err == nil || onlyDuplicates(err) {
		return nil
	}
	return apperr.Store(err)
}

// onlyDuplicates reports whether every write error of a bulk insert is a
// duplicate key violation.
func onlyDuplicates(err error) bool {
	var bulk mongo.BulkWriteException
	if !errors.As(err, &bulk) {
		return false
	}
	if bulk.WriteConcernError != nil || len(bulk.WriteErrors) == 0 {
		return false
	}
	for _, we := range bulk.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}

func (s *MongoStorage) StampEmailSent(ctx context.Context, messageID string, at time.Time) (int64, error) {
	res, err := s.receipts.UpdateMany(ctx,
		bson.D{{Key: "messageId", Value: messageID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "emailSentAt", Value: at},
			{Key: "emailStatus", Value: EmailSent},
			{Key: "updatedAt", Value: at},
		}}},
	)
	if err != nil {
		return 0, apperr.Store(err)
	}
	return res.ModifiedCount, nil
}

func isSet(field string) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, false}}}, 1, 0,
	}}}
}

func (s *MongoStorage) ReceiptStats(ctx context.Context, messageID string) (ReceiptStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "messageId", Value: messageID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "emailSent", Value: bson.D{{Key: "$sum", Value: isSet("emailSentAt")}}},
			{Key: "opened", Value: bson.D{{Key: "$sum", Value: isSet("openedAt")}}},
			{Key: "seen", Value: bson.D{{Key: "$sum", Value: isSet("seenAt")}}},
			{Key: "clicked", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$or", Value: bson.A{
					bson.D{{Key: "$ifNull", Value: bson.A{"$clickedAt", false}}},
					bson.D{{Key: "$gt", Value: bson.A{"$clickCount", 0}}},
				}}}, 1, 0,
			}}}}}},
		}}},
	}

	var st ReceiptStats
	cur, err := s.receipts.Aggregate(ctx, pipeline)
	if err != nil {
		return st, apperr.Store(err)
	}
	var rows []ReceiptStats
	if err := cur.All(ctx, &rows); err != nil {
		return st, apperr.Store(err)
	}
	if len(rows) > 0 {
		st = rows[0]
	}
	return st, nil
}

// eventUpdate is an update pipeline so that timestamps are only set once.
func eventUpdate(e ReceiptEvent, at time.Time) mongo.Pipeline {
	once := func(field string) bson.E {
		return bson.E{Key: field, Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, at}}}}
	}
	set := bson.D{{Key: "updatedAt", Value: at}}
	switch e {
	case EventSeen:
		set = append(set, once("seenAt"))
	case EventOpened:
		set = append(set, once("seenAt"), once("openedAt"))
	case EventClick:
		set = append(set, once("clickedAt"), bson.E{Key: "clickCount", Value: bson.D{{Key: "$add", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$clickCount", 0}}}, 1,
		}}}})
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func (s *MongoStorage) RecordEvent(ctx context.Context, messageID, userID string, e ReceiptEvent, at time.Time) (*Receipt, error) {
	var r Receipt
	err := s.receipts.FindOneAndUpdate(ctx,
		bson.D{{Key: "messageId", Value: messageID}, {Key: "userId", Value: userID}},
		eventUpdate(e, at),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return nil, ErrReceiptNotFound
		}
		return nil, apperr.Store(err)
	}
	return &r, nil
}

func (s *MongoStorage) ListReceipts(ctx context.Context, userID string, skip, limit int) ([]Receipt, int64, error) {
	return findPage[Receipt](ctx, s.receipts, bson.D{{Key: "userId", Value: userID}}, skip, limit)
}
