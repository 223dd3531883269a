package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/templates"
)

func TestEvalCondition(t *testing.T) {
	t.Parallel()

	vars := templates.Vars{
		"yes":   true,
		"no":    false,
		"zero":  0,
		"one":   1,
		"empty": "",
		"name":  "ana",
		"year":  2026,
		"list":  []string{},
		"items": []any{1},
		"bag":   map[string]any{},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"{{yes}}", true},
		{"{{no}}", false},
		{"{{zero}}", false},
		{"{{one}}", true},
		{"{{empty}}", false},
		{"{{missing}}", false},
		{"{{list}}", false},
		{"{{items}}", true},
		{"{{bag}}", false},
		{"!{{yes}}", false},
		{"!{{no}}", true},
		{"!{{missing}}", true},
		{`{{name}} == "ana"`, true},
		{`{{name}} == 'bob'`, false},
		{`{{year}} == "2026"`, true},
		{`{{missing}} == ""`, false},
		{"  {{yes}}  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, templates.EvalCondition(tt.expr, vars))
		})
	}
}

func TestField_FirstMatchWins(t *testing.T) {
	t.Parallel()

	f := templates.Conditional(
		templates.Literal("default"),
		templates.When("{{a}}", "A"),
		templates.When("{{b}}", "B"),
	)

	assert.Equal(t, "A", f.Eval(templates.Vars{"a": true, "b": true}))
	assert.Equal(t, "B", f.Eval(templates.Vars{"b": true}))
	assert.Equal(t, "default", f.Eval(nil))
}

func TestField_Nested(t *testing.T) {
	t.Parallel()

	inner := templates.Conditional(templates.Literal("inner default"), templates.When("{{y}}", "inner y"))
	f := templates.Conditional(templates.Literal("outer"), templates.Branch[string]{If: "{{x}}", Then: inner})

	assert.Equal(t, "inner y", f.Eval(templates.Vars{"x": 1, "y": 1}))
	assert.Equal(t, "inner default", f.Eval(templates.Vars{"x": 1}))
	assert.Equal(t, "outer", f.Eval(nil))

	var unset templates.Field[[]string]
	assert.False(t, unset.IsSet())
	assert.Nil(t, unset.Eval(nil))
}
