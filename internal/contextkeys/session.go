package contextkeys

import "context"

type sessionIDKeyType struct{}

var sessionIDKey = sessionIDKeyType{}

// ContextWithSessionID помещает id сессии просмотра в контекст
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}
