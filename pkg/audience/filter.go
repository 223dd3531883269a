package audience

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Logic joins the conditions of a filter.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Op is a condition operator.
type Op string

const (
	// OpEq with a nil value matches a missing field, null, or "".
	OpEq     Op = "eq"
	OpNe     Op = "ne"
	OpIn     Op = "in"
	OpNin    Op = "nin"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpExists Op = "exists"
	OpRegex  Op = "regex" // PCRE-style, case-insensitive
)

// MaxConditions bounds the size of a filter.
const MaxConditions = 50

// Filter selects recipients by their profile. Field is a dotted path into
// the profile document. A filter without conditions matches everyone.
type Filter struct {
	Logic      Logic       `json:"logic,omitempty" bson:"logic,omitempty"`
	Conditions []Condition `json:"conditions" bson:"conditions"`
}

// Condition compares one profile field with Value.
type Condition struct {
	Field string `json:"field" bson:"field"`
	Op    Op     `json:"op,omitempty" bson:"op,omitempty"`
	Value any    `json:"value" bson:"value"`
}

// IsEmpty reports whether the filter matches every recipient.
func (f Filter) IsEmpty() bool {
	return len(f.normalized().Conditions) == 0
}

// normalized upper-cases logic, lower-cases ops, defaults both and drops
// conditions without a field.
func (f Filter) normalized() Filter {
	out := Filter{Logic: Logic(strings.ToUpper(strings.TrimSpace(string(f.Logic))))}
	if out.Logic == "" {
		out.Logic = LogicAnd
	}
	for _, c := range f.Conditions {
		c.Field = strings.TrimSpace(c.Field)
		if c.Field == "" {
			continue
		}
		c.Op = Op(strings.ToLower(strings.TrimSpace(string(c.Op))))
		if c.Op == "" {
			c.Op = OpEq
		}
		out.Conditions = append(out.Conditions, c)
	}
	return out
}

var filterSchema = gojsonschema.NewStringLoader(fmt.Sprintf(`{
	"type": "object",
	"required": ["logic", "conditions"],
	"properties": {
		"logic": {"type": "string", "enum": ["AND", "OR"]},
		"conditions": {
			"type": ["array", "null"],
			"maxItems": %d,
			"items": {
				"type": "object",
				"required": ["field", "op"],
				"properties": {
					"field": {"type": "string", "minLength": 1, "pattern": "^[^$][^\\s]*$"},
					"op": {"type": "string", "enum": ["eq", "ne", "in", "nin", "gt", "gte", "lt", "lte", "exists", "regex"]}
				}
			}
		}
	}
}`, MaxConditions))

// Validate checks the filter shape against the filter schema and the
// operator-specific value rules.
func (f Filter) Validate() error {
	n := f.normalized()

	result, err := gojsonschema.Validate(filterSchema, gojsonschema.NewGoLoader(n))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(errs, "; "))
	}

	for i, c := range n.Conditions {
		if err := c.validateValue(); err != nil {
			return fmt.Errorf("%w: condition %d (%s): %v", ErrInvalidFilter, i, c.Field, err)
		}
	}
	return nil
}

func (c Condition) validateValue() error {
	switch c.Op {
	case OpGt, OpGte, OpLt, OpLte:
		if c.Value == nil {
			return fmt.Errorf("%s needs a value", c.Op)
		}
	case OpRegex:
		s, ok := c.Value.(string)
		if !ok {
			return fmt.Errorf("regex needs a string pattern")
		}
		if _, err := compilePattern(s); err != nil {
			return err
		}
	}
	return nil
}
