package notifications

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

// Contact holds the addresses a recipient can be reached at. Empty fields
// mean the channel is unavailable for that recipient.
type Contact struct {
	Email      string
	PushToken  string
	Phone      string
	WebhookURL string
}

// ContactResolver looks up contact details for one recipient kind.
type ContactResolver interface {
	Resolve(ctx context.Context, id string) (Contact, error)
}

// ContactResolverFunc adapts a function to ContactResolver.
type ContactResolverFunc func(ctx context.Context, id string) (Contact, error)

func (f ContactResolverFunc) Resolve(ctx context.Context, id string) (Contact, error) {
	return f(ctx, id)
}

// Contacts resolves a recipient of any model. Deliverers depend on it.
type Contacts interface {
	Resolve(ctx context.Context, model, id string) (Contact, error)
}

// ContactDirectory selects a ContactResolver by recipient model.
type ContactDirectory struct {
	resolvers map[string]ContactResolver
	logger    *slog.Logger
}

type ContactDirectoryOption func(*ContactDirectory)

// WithContactResolver registers r for recipients of the given model.
func WithContactResolver(model string, r ContactResolver) ContactDirectoryOption {
	return func(d *ContactDirectory) {
		d.resolvers[model] = r
	}
}

func WithContactDirectoryLogger(log *slog.Logger) ContactDirectoryOption {
	return func(d *ContactDirectory) {
		if log != nil {
			d.logger = log
		}
	}
}

func NewContactDirectory(opts ...ContactDirectoryOption) *ContactDirectory {
	d := &ContactDirectory{
		resolvers: make(map[string]ContactResolver),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve returns the contact for id. An unknown model or a missing
// recipient yields an empty Contact, which deliverers treat as a skip.
func (d *ContactDirectory) Resolve(ctx context.Context, model, id string) (Contact, error) {
	r, ok := d.resolvers[model]
	if !ok {
		d.logger.LogAttrs(ctx, slog.LevelDebug, "no contact resolver for recipient model",
			logger.RecipientID(id, model),
		)
		return Contact{}, nil
	}
	c, err := r.Resolve(ctx, id)
	if apperr.IsNotFound(err) {
		return Contact{}, nil
	}
	return c, err
}

// ContactFields maps Contact fields to dotted document paths.
type ContactFields struct {
	Email      string
	PushToken  string
	Phone      string
	WebhookURL string
}

// DefaultContactFields matches the user profile documents.
var DefaultContactFields = ContactFields{
	Email:      "email",
	PushToken:  "pushToken",
	Phone:      "phone",
	WebhookURL: "webhookUrl",
}

// MongoContactResolver reads contact fields from a profile collection.
type MongoContactResolver struct {
	coll   *mongo.Collection
	fields ContactFields
}

// NewMongoContactResolver reads from coll using fields; zero fields fall
// back to DefaultContactFields.
func NewMongoContactResolver(coll *mongo.Collection, fields ContactFields) *MongoContactResolver {
	if fields == (ContactFields{}) {
		fields = DefaultContactFields
	}
	return &MongoContactResolver{coll: coll, fields: fields}
}

func (r *MongoContactResolver) Resolve(ctx context.Context, id string) (Contact, error) {
	projection := bson.M{}
	for _, p := range []string{r.fields.Email, r.fields.PushToken, r.fields.Phone, r.fields.WebhookURL} {
		if p != "" {
			projection[p] = 1
		}
	}

	var doc bson.M
	err := r.coll.FindOne(ctx, mongox.IDFilter(id), options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return Contact{}, apperr.New(apperr.ErrNotFound, "recipient "+id)
		}
		return Contact{}, apperr.Store(err)
	}

	return Contact{
		Email:      sanitizer.NormalizeEmail(mongox.LookupString(doc, r.fields.Email)),
		PushToken:  mongox.LookupString(doc, r.fields.PushToken),
		Phone:      sanitizer.NormalizePhone(mongox.LookupString(doc, r.fields.Phone)),
		WebhookURL: mongox.LookupString(doc, r.fields.WebhookURL),
	}, nil
}
