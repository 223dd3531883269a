package templates

import (
	"math"
	"reflect"
	"strings"
)

// EvalCondition evaluates a condition expression against vars:
//
//	{{var}}              truthiness of var
//	!{{var}}             negated truthiness
//	{{var}} == "value"   string equality (quotes optional)
//
// An empty expression is true.
func EvalCondition(expr string, vars Vars) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	if rest, ok := strings.CutPrefix(expr, "!"); ok {
		return !Truthy(vars[varName(rest)])
	}
	if left, right, ok := strings.Cut(expr, "=="); ok {
		v, present := vars[varName(left)]
		if !present || v == nil {
			return false
		}
		want := strings.Trim(strings.TrimSpace(right), `"'`)
		return stringify(v) == want
	}
	return Truthy(vars[varName(expr)])
}

func varName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{{")
	s = strings.TrimSuffix(s, "}}")
	name, _, _ := strings.Cut(s, "|")
	return strings.TrimSpace(name)
}

// Truthy reports whether v counts as true in a condition. nil, false, zero
// numbers, NaN, empty strings and empty slices or maps are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
