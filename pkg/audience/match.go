package audience

import (
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	mongox "github.com/dmitrymomot/notifykit/pkg/mongo"
)

// Match evaluates the filter against a profile document in memory with the
// same semantics Query has on the server: array fields match when any
// element does, ne and nin match missing fields, exists tests presence.
func (f Filter) Match(profile map[string]any) bool {
	n := f.normalized()

	evaluated := 0
	for _, c := range n.Conditions {
		if _, ok := c.expr(); !ok {
			continue
		}
		evaluated++
		ok := c.match(profile)
		if n.Logic == LogicOr && ok {
			return true
		}
		if n.Logic != LogicOr && !ok {
			return false
		}
	}
	return n.Logic != LogicOr || evaluated == 0
}

func (c Condition) match(profile map[string]any) bool {
	v, present := mongox.Lookup(profile, c.Field)

	switch c.Op {
	case OpEq:
		if c.Value == nil {
			return !present || v == nil || v == ""
		}
		return present && anyElem(v, func(e any) bool { return equal(e, c.Value) })
	case OpNe:
		return !(present && anyElem(v, func(e any) bool { return equal(e, c.Value) }))
	case OpIn:
		return inList(v, present, toList(c.Value))
	case OpNin:
		return !inList(v, present, toList(c.Value))
	case OpGt, OpGte, OpLt, OpLte:
		if !present {
			return false
		}
		return anyElem(v, func(e any) bool {
			cmp, ok := compare(e, c.Value)
			if !ok {
				return false
			}
			switch c.Op {
			case OpGt:
				return cmp > 0
			case OpGte:
				return cmp >= 0
			case OpLt:
				return cmp < 0
			default:
				return cmp <= 0
			}
		})
	case OpExists:
		return present == truthy(c.Value)
	case OpRegex:
		pattern, _ := c.Value.(string)
		re, err := compilePattern(pattern)
		if err != nil || !present {
			return false
		}
		return anyElem(v, func(e any) bool {
			s, ok := e.(string)
			return ok && matchPattern(re, s)
		})
	}
	return false
}

func inList(v any, present bool, list bson.A) bool {
	for _, want := range list {
		if want == nil && (!present || v == nil) {
			return true
		}
		if present && anyElem(v, func(e any) bool { return equal(e, want) }) {
			return true
		}
	}
	return false
}

// anyElem applies fn to v itself and, for arrays, to each element.
func anyElem(v any, fn func(any) bool) bool {
	if fn(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := range rv.Len() {
		if fn(rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if cmp, ok := compare(a, b); ok {
		return cmp == 0
	}
	if oid, ok := a.(bson.ObjectID); ok {
		if s, ok := b.(string); ok {
			return oid.Hex() == s
		}
	}
	return reflect.DeepEqual(a, b)
}

// compare orders numbers, strings and times. The second result is false for
// values of incomparable types.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ta, ok := toTime(a); ok {
		tb, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case bson.DateTime:
		return t.Time(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}
