package outreach

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrAudienceNotFound = fmt.Errorf("audience not found: %w", apperr.ErrNotFound)
	ErrMessageNotFound  = fmt.Errorf("outreach message not found: %w", apperr.ErrNotFound)
	ErrReceiptNotFound  = fmt.Errorf("receipt not found: %w", apperr.ErrNotFound)

	ErrInvalidAudience = fmt.Errorf("invalid audience: %w", apperr.ErrValidation)
	ErrInvalidMessage  = fmt.Errorf("invalid outreach message: %w", apperr.ErrValidation)
	ErrNoAudience      = fmt.Errorf("message has no audience or inline filter: %w", apperr.ErrValidation)

	ErrAlreadySent = fmt.Errorf("message already sent: %w", apperr.ErrState)
	ErrNotDraft    = fmt.Errorf("only draft messages can be updated: %w", apperr.ErrState)
)
