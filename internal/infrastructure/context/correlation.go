// Package context carries request scoped identifiers from the HTTP edge to
// the extraction service and its audit trail.
package context

import "context"

type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	// SubjectKey is the context key for the authenticated caller.
	SubjectKey contextKey = "subject"
)

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID retrieves the correlation ID from the context.
// Returns an empty string if no correlation ID is present.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSubject records the verified token subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}

// GetSubject returns the verified token subject, or "" for anonymous calls.
func GetSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(SubjectKey).(string); ok {
		return sub
	}
	return ""
}

// RequestHeadersKey is the context key for the redacted request headers kept
// for auditing.
const RequestHeadersKey contextKey = "request_headers"

// WithRequestHeaders stores already redacted request headers.
func WithRequestHeaders(ctx context.Context, headers map[string]string) context.Context {
	return context.WithValue(ctx, RequestHeadersKey, headers)
}

// GetRequestHeaders returns the headers stored by WithRequestHeaders, or nil.
func GetRequestHeaders(ctx context.Context) map[string]string {
	if h, ok := ctx.Value(RequestHeadersKey).(map[string]string); ok {
		return h
	}
	return nil
}
