package notifications

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// Member is one user's membership in an organization.
type Member struct {
	UserID string
	Role   string
}

// OrgDirectory lists organization members. Members returns
// ErrOrgNotFound when the organization does not exist.
type OrgDirectory interface {
	Members(ctx context.Context, orgID string) ([]Member, error)
}

// OrgDirectoryFunc adapts a function to OrgDirectory.
type OrgDirectoryFunc func(ctx context.Context, orgID string) ([]Member, error)

func (f OrgDirectoryFunc) Members(ctx context.Context, orgID string) ([]Member, error) {
	return f(ctx, orgID)
}

// MongoOrgDirectory reads the members array embedded in organization
// documents: {members: [{userId, role}]}.
type MongoOrgDirectory struct {
	coll *mongo.Collection
}

func NewMongoOrgDirectory(coll *mongo.Collection) *MongoOrgDirectory {
	return &MongoOrgDirectory{coll: coll}
}

func (d *MongoOrgDirectory) Members(ctx context.Context, orgID string) ([]Member, error) {
	var doc bson.M
	opts := options.FindOne().SetProjection(bson.M{"members": 1})
	if err := d.coll.FindOne(ctx, mongox.IDFilter(orgID), opts).Decode(&doc); err != nil {
		if mongox.IsNoDocuments(err) {
			return nil, ErrOrgNotFound
		}
		return nil, apperr.Store(err)
	}

	var raw []any
	switch v := doc["members"].(type) {
	case bson.A:
		raw = v
	case []any:
		raw = v
	}
	members := make([]Member, 0, len(raw))
	for _, item := range raw {
		m, ok := mongox.AsMap(item)
		if !ok {
			continue
		}
		id := mongox.LookupString(m, "userId")
		if id == "" {
			continue
		}
		members = append(members, Member{UserID: id, Role: mongox.LookupString(m, "role")})
	}
	return members, nil
}
