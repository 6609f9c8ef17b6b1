package middleware

import "context"

type contextKey string

const (
	ctxChatID    contextKey = "chat_id"
	ctxTransport contextKey = "transport"
)

// ChatIDFromContext returns the verified chat identity, or zero.
func ChatIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxChatID).(int64); ok {
		return v
	}
	return 0
}

func TransportFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTransport).(string); ok {
		return v
	}
	return ""
}

// WithChatID injects the chat identity into the context.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxChatID, chatID)
}
