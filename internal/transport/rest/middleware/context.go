package middleware

import (
	"context"
	"doraform/internal/model"
)

type contextKey string

const (
	RequestIDKey contextKey = "requestId"
	LocaleKey    contextKey = "locale"
)

// GetRequestID extracts the request id from context
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetLocale extracts the negotiated locale from context. The zero value is
// returned when the locale middleware did not run.
func GetLocale(ctx context.Context) model.Locale {
	if v, ok := ctx.Value(LocaleKey).(model.Locale); ok {
		return v
	}
	return ""
}
