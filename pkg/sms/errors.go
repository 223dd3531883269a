package sms

import "errors"

var (
	ErrInvalidParams   = errors.New("sms: invalid params")
	ErrInvalidConfig   = errors.New("sms: invalid config")
	ErrFailedToSendSMS = errors.New("sms: failed to send message")
)
