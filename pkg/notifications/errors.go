package notifications

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrNotificationNotFound = fmt.Errorf("notification: %w", apperr.ErrNotFound)
	ErrActionNotFound       = fmt.Errorf("notification action: %w", apperr.ErrNotFound)
	ErrOrgNotFound          = fmt.Errorf("organization: %w", apperr.ErrNotFound)
	ErrInvalidNotification  = fmt.Errorf("invalid notification: %w", apperr.ErrValidation)
	ErrInvalidTransition    = fmt.Errorf("invalid status transition: %w", apperr.ErrState)
	ErrUnsupportedChannel   = fmt.Errorf("unsupported channel: %w", apperr.ErrChannelDelivery)
	ErrDeliveryFailed       = fmt.Errorf("delivery failed: %w", apperr.ErrChannelDelivery)
	ErrActionFailed         = fmt.Errorf("action call failed: %w", apperr.ErrUpstream)

	// ErrSkipped is returned by a deliverer when the recipient has no
	// contact details for its channel. The dispatcher records a skip.
	ErrSkipped = errors.New("delivery skipped")
)
