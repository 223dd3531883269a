package mongo

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrEmptyConnectionURL     = errors.New("mongo: connection URL is empty")
	ErrFailedToConnectToMongo = fmt.Errorf("mongo: connect failed: %w", apperr.ErrStore)
	ErrFailedToCreateIndexes  = fmt.Errorf("mongo: index creation failed: %w", apperr.ErrStore)
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
)
