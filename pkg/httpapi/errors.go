package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/apperr"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/validator"
)

// HTTPError carries an explicit status and code.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrUnauthorized = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrForbidden    = HTTPError{Code: http.StatusForbidden, Key: "forbidden"}

	ErrTooManyRequests = HTTPError{Code: http.StatusTooManyRequests, Key: "too_many_requests"}
)

// classify maps an error to a status and a client-safe detail. Store and
// unknown errors hide their message.
func classify(err error) (int, ErrorDetail) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, ErrorDetail{Code: "unsupported_media_type", Message: err.Error()}
	case errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidPath):
		return http.StatusBadRequest, ErrorDetail{Code: "bad_request", Message: err.Error()}
	case apperr.IsValidation(err):
		return http.StatusBadRequest, ErrorDetail{
			Code:    "validation_error",
			Message: err.Error(),
			Fields:  validator.ExtractValidationErrors(err).Map(),
		}
	case apperr.IsNotFound(err):
		return http.StatusNotFound, ErrorDetail{Code: "not_found", Message: err.Error()}
	case apperr.IsState(err):
		return http.StatusConflict, ErrorDetail{Code: "invalid_state", Message: err.Error()}
	case apperr.IsChannelDelivery(err):
		return http.StatusBadGateway, ErrorDetail{Code: "delivery_failed", Message: err.Error()}
	case apperr.IsUpstream(err):
		return http.StatusBadGateway, ErrorDetail{Code: "upstream_failed", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorDetail{Code: "internal_error", Message: "internal error"}
}

func renderError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, _ := classify(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.LogAttrs(r.Context(), level, "request error",
		logger.RequestID(RequestIDFromContext(r.Context())),
		logger.Error(err),
		slog.Int("status_code", status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("httpapi"),
	)
	_ = Error(err).Render(w, r)
}
