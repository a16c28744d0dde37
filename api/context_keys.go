package api

import (
	"context"
	"time"
)

// contextKey is a private type to prevent context key collisions across packages.
type contextKey string

const (
	// ContextKeyRequestID stores the unique request identifier (string)
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyTraceStart stores the request start time (time.Time)
	ContextKeyTraceStart contextKey = "trace_start"

	// ContextKeyJSONBody stores the decoded JSON request body
	ContextKeyJSONBody contextKey = "json_body"
)

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

// WithRequestID returns a copy of ctx carrying requestID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetTraceStart extracts the time the request entered the server.
func GetTraceStart(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(ContextKeyTraceStart).(time.Time)
	return start, ok
}

// WithTraceStart returns a copy of ctx carrying the request start time
func WithTraceStart(ctx context.Context, start time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyTraceStart, start)
}

// JSONBody returns the parsed JSON request body. The value is a
// map[string]interface{} or a []interface{}. It reports false when the
// request carried no JSON body.
func JSONBody(ctx context.Context) (interface{}, bool) {
	body := ctx.Value(ContextKeyJSONBody)
	return body, body != nil
}

func withJSONBody(ctx context.Context, body interface{}) context.Context {
	return context.WithValue(ctx, ContextKeyJSONBody, body)
}
