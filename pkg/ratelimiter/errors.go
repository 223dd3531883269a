package ratelimiter

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrInvalidConfig     = fmt.Errorf("invalid rate limit configuration: %w", apperr.ErrValidation)
	ErrInvalidTokenCount = fmt.Errorf("invalid token count: %w", apperr.ErrValidation)
	ErrKeyRequired       = fmt.Errorf("rate limit key is required: %w", apperr.ErrValidation)
	ErrStoreUnavailable  = errors.New("rate limit store unavailable")
)
