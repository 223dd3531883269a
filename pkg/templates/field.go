package templates

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field is either a literal value or a conditional value chosen by
// evaluating branch conditions against the variable bag. Branches are tried
// in order and the first match wins; otherwise the default is used.
type Field[T any] struct {
	literal     T
	set         bool
	conditional bool
	branches    []Branch[T]
	fallback    *Field[T]
}

// Branch pairs a condition expression with the field chosen when it holds.
type Branch[T any] struct {
	If   string
	Then Field[T]
}

// Literal wraps a fixed value.
func Literal[T any](v T) Field[T] {
	return Field[T]{literal: v, set: true}
}

// Conditional builds a conditional field with the given default.
func Conditional[T any](fallback Field[T], branches ...Branch[T]) Field[T] {
	return Field[T]{set: true, conditional: true, branches: branches, fallback: &fallback}
}

// When is shorthand for Branch{If: cond, Then: Literal(v)}.
func When[T any](cond string, v T) Branch[T] {
	return Branch[T]{If: cond, Then: Literal(v)}
}

// IsSet reports whether the field carries a literal or conditional value.
func (f Field[T]) IsSet() bool { return f.set }

// IsConditional reports whether the field is the conditional arm.
func (f Field[T]) IsConditional() bool { return f.conditional }

// Eval resolves the field for vars. An unset field, or a conditional with no
// matching branch and no default, yields the zero value.
func (f Field[T]) Eval(vars Vars) T {
	if !f.conditional {
		return f.literal
	}
	for _, b := range f.branches {
		if EvalCondition(b.If, vars) {
			return b.Then.Eval(vars)
		}
	}
	if f.fallback != nil {
		return f.fallback.Eval(vars)
	}
	var zero T
	return zero
}

type yamlBranch[T any] struct {
	If   string   `yaml:"if"`
	Then Field[T] `yaml:"then"`
}

type yamlConditional[T any] struct {
	Type       string          `yaml:"type"`
	Conditions []yamlBranch[T] `yaml:"conditions"`
	Default    *Field[T]       `yaml:"default"`
}

// UnmarshalYAML decodes a mapping with "conditions" or "default" keys as a
// conditional field and anything else as a literal T.
func (f *Field[T]) UnmarshalYAML(node *yaml.Node) error {
	if isConditionalNode(node) {
		var c yamlConditional[T]
		if err := node.Decode(&c); err != nil {
			return err
		}
		if c.Type != "" && c.Type != "conditional" {
			return fmt.Errorf("%w: unknown field type %q", ErrInvalidTemplate, c.Type)
		}
		branches := make([]Branch[T], len(c.Conditions))
		for i, b := range c.Conditions {
			if b.If == "" {
				return fmt.Errorf("%w: condition %d has no expression", ErrInvalidTemplate, i)
			}
			branches[i] = Branch[T]{If: b.If, Then: b.Then}
		}
		*f = Field[T]{set: true, conditional: true, branches: branches, fallback: c.Default}
		return nil
	}

	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*f = Literal(v)
	return nil
}

func isConditionalNode(node *yaml.Node) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "conditions", "default":
			return true
		}
	}
	return false
}
