// Package requestctx carries the request ID assigned at the HTTP layer so
// domain services and audit records can correlate their log lines with the
// originating request.
package requestctx

import "context"

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request ID stored on the context, or the empty
// string when the context did not pass through the HTTP layer.
func GetRequestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}
