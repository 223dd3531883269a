package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	return optionalString("request_id", id)
}

// NotificationID records the notification identifier.
func NotificationID(id string) slog.Attr {
	return optionalString("notification_id", id)
}

// RecipientID records the recipient identifier together with its model
// when one is given.
func RecipientID(id string, model ...string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	if len(model) > 0 && model[0] != "" {
		return Group("recipient", slog.String("id", id), slog.String("model", model[0]))
	}
	return slog.String("recipient_id", id)
}

// Channel records the delivery channel name.
func Channel(name string) slog.Attr {
	return optionalString("channel", name)
}

// Template records the template name.
func Template(name string) slog.Attr {
	return optionalString("template", name)
}

// OutreachMessageID records the outreach message identifier.
func OutreachMessageID(id string) slog.Attr {
	return optionalString("outreach_message_id", id)
}

// AudienceID records the saved audience identifier.
func AudienceID(id string) slog.Attr {
	return optionalString("audience_id", id)
}

// Count records a quantity under the given key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func optionalString(key, v string) slog.Attr {
	if v == "" {
		return slog.Attr{}
	}
	return slog.String(key, v)
}
