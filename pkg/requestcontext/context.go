// Package requestcontext carries request-scoped values through services
// without importing net/http. Middleware sets them; tests inject them
// directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "FieldApp/2.1")
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	clientIPKey key = iota
	userAgentKey
	requestIDKey
	requestTimeKey
)

func stringValue(ctx context.Context, k key) string {
	s, _ := ctx.Value(k).(string)
	return s
}

// ClientIP is the caller address resolved by the metadata middleware.
func ClientIP(ctx context.Context) string { return stringValue(ctx, clientIPKey) }

// UserAgent is the raw User-Agent header of the request.
func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey) }

// WithClientMetadata stores the caller address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// RequestID is the id logged as request_id; empty outside HTTP requests.
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

// WithRequestID stores id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// Now is the time captured when the request arrived, so every timestamp
// written by one request agrees. Outside a request it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
