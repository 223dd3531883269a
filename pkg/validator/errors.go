package validator

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

// ErrValidationFailed is returned when validation fails without field details.
var ErrValidationFailed = fmt.Errorf("validation failed: %w", apperr.ErrValidation)
