package push

import "errors"

var (
	ErrInvalidMessage = errors.New("push: invalid message")
	ErrSendFailed     = errors.New("push: send failed")
)
