package sms

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/sanitizer"
)

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Sender delivers a single text message.
type Sender interface {
	SendSMS(ctx context.Context, params SendSMSParams) error
}

// SendSMSParams describes one outbound text message. To must be in E.164
// format after normalisation.
type SendSMSParams struct {
	To      string
	Message string
}

// Normalize strips formatting from the phone number and whitespace around
// the message.
func (p SendSMSParams) Normalize() SendSMSParams {
	return SendSMSParams{
		To:      sanitizer.NormalizePhone(p.To),
		Message: strings.TrimSpace(p.Message),
	}
}

// Validate checks the phone number format and message presence.
func (p SendSMSParams) Validate() error {
	if !e164Regex.MatchString(p.To) {
		return fmt.Errorf("%w: phone number %q is not in E.164 format", ErrInvalidParams, p.To)
	}
	if p.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidParams)
	}
	return nil
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that writes each message to log.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{logger: log}
}

func (s *LogSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "sms suppressed in development",
		slog.String("to", sanitizer.MaskPhone(params.To)),
		slog.String("message", params.Message),
	)
	return nil
}
