package logging

import "context"

type requestIDKey struct{}

// RequestIDAttr is the attribute name under which loggers emit the request
// id carried by the context.
const RequestIDAttr = "request_id"

// WithRequestID returns a copy of ctx that carries id. Both logger
// implementations add it to every entry logged with that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withContextAttrs(ctx context.Context, args []any) []any {
	if id := RequestID(ctx); id != "" {
		return append(args, RequestIDAttr, id)
	}
	return args
}
