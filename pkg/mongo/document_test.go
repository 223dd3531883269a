package mongo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/notifykit/pkg/mongo"
)

func TestLookup(t *testing.T) {
	oid := bson.NewObjectID()
	doc := map[string]any{
		"email": "ana@example.com",
		"studentProfile": bson.M{
			"graduationYear": int32(2026),
			"advisor":        bson.D{{Key: "id", Value: oid}},
		},
		"tags": []any{"a"},
	}

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{name: "top level", path: "email", want: "ana@example.com", found: true},
		{name: "bson.M", path: "studentProfile.graduationYear", want: int32(2026), found: true},
		{name: "bson.D", path: "studentProfile.advisor.id", want: oid, found: true},
		{name: "missing leaf", path: "studentProfile.major", found: false},
		{name: "through scalar", path: "email.domain", found: false},
		{name: "through slice", path: "tags.0", found: false},
		{name: "empty path", path: "", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mongo.Lookup(doc, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	assert.Equal(t, oid.Hex(), mongo.LookupString(doc, "studentProfile.advisor.id"))
	assert.Equal(t, "", mongo.LookupString(doc, "studentProfile.graduationYear"))
}

func TestIDFilter(t *testing.T) {
	oid := bson.NewObjectID()
	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{oid, oid.Hex()}}}, mongo.IDFilter(oid.Hex()))
	assert.Equal(t, bson.M{"_id": "user-1"}, mongo.IDFilter("user-1"))
}
