package audience

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var ErrInvalidFilter = fmt.Errorf("invalid audience filter: %w", apperr.ErrValidation)
