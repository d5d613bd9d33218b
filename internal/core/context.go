package core

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying the request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withRequestID copies data and adds the request ID when one is set
func withRequestID(ctx context.Context, data map[string]any) map[string]any {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return data
	}
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["requestId"] = id
	return out
}
