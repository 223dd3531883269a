package webhook

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout bounds each attempt. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed attempt is retried. Default 3.
func WithMaxRetries(n int) Option {
	return func(s *Sender) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithBackoff sets the retry delay strategy.
func WithBackoff(b Backoff) Option {
	return func(s *Sender) {
		if b != nil {
			s.backoff = b
		}
	}
}

// WithSigningSecret signs every delivery with HMAC-SHA256.
func WithSigningSecret(secret string) Option {
	return func(s *Sender) {
		s.secret = secret
	}
}

// WithWebhookLogger sets the logger used for attempt diagnostics.
func WithWebhookLogger(log *slog.Logger) Option {
	return func(s *Sender) {
		if log != nil {
			s.logger = log
		}
	}
}
