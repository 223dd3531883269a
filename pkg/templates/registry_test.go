package templates_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/templates"
)

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	reg := templates.DefaultRegistry()
	ctx := context.Background()

	tpl, err := reg.Get(ctx, "payment_received")
	require.NoError(t, err)
	assert.Equal(t, "payment_received", tpl.Name)

	tpl, err = reg.Get(ctx, "does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, "welcome", tpl.Name)

	tpl, err = reg.GetAdvanced(ctx, "does_not_exist")
	require.NoError(t, err)
	assert.Equal(t, "dynamic_welcome", tpl.Name)
	assert.True(t, tpl.Advanced)
}

func TestRegistry_EmptyRegistry(t *testing.T) {
	t.Parallel()

	_, err := templates.NewRegistry().Get(context.Background(), "welcome")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRegistry_OverridesAndNames(t *testing.T) {
	t.Parallel()

	custom := templates.Template{Name: "welcome", Version: "9", Title: templates.Literal("Custom")}
	reg := templates.DefaultRegistry(
		templates.WithTemplates(custom, templates.Template{Name: "aaa", Title: templates.Literal("first")}),
		templates.WithDefault("aaa"),
	)

	tpl, ok := reg.Lookup("welcome")
	require.True(t, ok)
	assert.Equal(t, "9", tpl.Version)

	tpl, err := reg.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "aaa", tpl.Name)

	names := reg.Names()
	assert.Equal(t, "aaa", names[0])
	assert.Contains(t, names, "smart_event_reminder")
	assert.Len(t, names, len(templates.Builtin())+1)
}

func TestBuiltin_Valid(t *testing.T) {
	t.Parallel()

	for _, tpl := range templates.Builtin() {
		assert.NoError(t, tpl.Validate(), tpl.Name)
	}
}
