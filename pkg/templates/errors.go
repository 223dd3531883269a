package templates

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrTemplateNotFound = fmt.Errorf("template not found: %w", apperr.ErrNotFound)
	ErrInvalidTemplate  = fmt.Errorf("invalid template: %w", apperr.ErrValidation)
	ErrLoadCatalog      = errors.New("templates: failed to load catalog")
)
