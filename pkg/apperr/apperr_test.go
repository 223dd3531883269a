package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

func TestKind(t *testing.T) {
	t.Parallel()

	errThingNotFound := apperr.New(apperr.ErrNotFound, "thing not found")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "plain error", err: errors.New("boom"), want: nil},
		{name: "package sentinel", err: errThingNotFound, want: apperr.ErrNotFound},
		{name: "wrapped sentinel", err: fmt.Errorf("lookup: %w", errThingNotFound), want: apperr.ErrNotFound},
		{name: "joined state", err: errors.Join(apperr.ErrState, errors.New("already sent")), want: apperr.ErrState},
		{name: "upstream", err: fmt.Errorf("call: %w", apperr.New(apperr.ErrUpstream, "POST /x returned 400")), want: apperr.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, apperr.Kind(tt.err))
		})
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	assert.NoError(t, apperr.Store(nil))

	raw := errors.New("connection reset")
	wrapped := apperr.Store(raw)
	assert.True(t, apperr.IsStore(wrapped))
	assert.ErrorIs(t, wrapped, raw)

	notFound := apperr.New(apperr.ErrNotFound, "missing")
	assert.Same(t, notFound, apperr.Store(notFound), "errors with a kind pass through")
	assert.False(t, apperr.IsStore(apperr.Store(notFound)))
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	err := apperr.New(apperr.ErrValidation, "title is required")
	assert.Equal(t, "title is required: validation error", err.Error())
	assert.True(t, apperr.IsValidation(err))
	assert.False(t, apperr.IsNotFound(err))
}
