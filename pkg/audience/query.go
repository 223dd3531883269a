package audience

import (
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Query compiles the filter into a MongoDB query document. Conditions with
// an unknown operator are dropped; call Validate first to reject them.
func (f Filter) Query() bson.D {
	n := f.normalized()

	clauses := make(bson.A, 0, len(n.Conditions))
	for _, c := range n.Conditions {
		expr, ok := c.expr()
		if !ok {
			continue
		}
		clauses = append(clauses, bson.D{{Key: c.Field, Value: expr}})
	}

	if len(clauses) == 0 {
		return bson.D{}
	}
	key := "$and"
	if n.Logic == LogicOr {
		key = "$or"
	}
	return bson.D{{Key: key, Value: clauses}}
}

func (c Condition) expr() (any, bool) {
	switch c.Op {
	case OpEq:
		if c.Value == nil {
			return bson.D{{Key: "$in", Value: bson.A{nil, ""}}}, true
		}
		if _, isDoc := c.Value.(map[string]any); isDoc {
			return bson.D{{Key: "$eq", Value: c.Value}}, true
		}
		return c.Value, true
	case OpNe:
		return bson.D{{Key: "$ne", Value: c.Value}}, true
	case OpIn:
		return bson.D{{Key: "$in", Value: toList(c.Value)}}, true
	case OpNin:
		return bson.D{{Key: "$nin", Value: toList(c.Value)}}, true
	case OpGt, OpGte, OpLt, OpLte:
		return bson.D{{Key: "$" + string(c.Op), Value: c.Value}}, true
	case OpExists:
		return bson.D{{Key: "$exists", Value: truthy(c.Value)}}, true
	case OpRegex:
		pattern, _ := c.Value.(string)
		return bson.D{{Key: "$regex", Value: pattern}, {Key: "$options", Value: "i"}}, true
	}
	return nil, false
}

// toList returns v as a list, wrapping scalars.
func toList(v any) bson.A {
	switch l := v.(type) {
	case nil:
		return bson.A{nil}
	case bson.A:
		return l
	case []any:
		return bson.A(l)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make(bson.A, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return bson.A{v}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != "" && b != "false" && b != "0"
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
