package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AsMap converts a decoded embedded document to map[string]any. It accepts
// bson.M, bson.D and plain maps; anything else reports false.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return map[string]any(m), true
	case bson.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return nil, false
}

// Lookup walks a dotted path such as "profile.contact.email" through nested
// documents. It reports false when any segment is missing.
func Lookup(doc map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = doc
	for part := range strings.SplitSeq(path, ".") {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup for string leaves. ObjectIDs are rendered as hex.
func LookupString(doc map[string]any, path string) string {
	v, ok := Lookup(doc, path)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case bson.ObjectID:
		return s.Hex()
	}
	return ""
}

// IDFilter matches a document by _id, trying the hex form as an ObjectID
// first and falling back to the raw string.
func IDFilter(id string) bson.M {
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}
