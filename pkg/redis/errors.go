package redis

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
)

var (
	ErrEmptyConnectionURL           = errors.New("redis: connection URL is empty")
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection URL")
	ErrRedisNotReady                = fmt.Errorf("redis: server did not answer PING in time: %w", apperr.ErrStore)
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)
