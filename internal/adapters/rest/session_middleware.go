package rest

import (
	"context"
	"net/http"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
)

const SessionHeader = "X-Session-ID"

type contextKey string

const sessionKey = contextKey("browseSession")

// SessionMiddleware находит сессию просмотра по X-Session-ID или поднимает новую.
// Итоговый id всегда возвращается в заголовке ответа.
func SessionMiddleware(registry usecases_port.SessionRegistryUseCasePort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := contextkeys.LoggerFromContext(ctx)

			session, created, err := registry.GetOrCreate(ctx, r.Header.Get(SessionHeader))
			if err != nil {
				logger.Error("Failed to resolve browse session", err, nil)
				WriteJSONError(w, http.StatusInternalServerError, "Failed to resolve session")
				return
			}
			if created {
				logger.Debug("New browse session bound to request", port.Fields{"session_id": session.ID()})
			}

			w.Header().Set(SessionHeader, session.ID())

			ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"session_id": session.ID()}))
			ctx = contextkeys.ContextWithSessionID(ctx, session.ID())
			ctx = context.WithValue(ctx, sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) (usecases_port.BrowseSessionPort, bool) {
	session, ok := ctx.Value(sessionKey).(usecases_port.BrowseSessionPort)
	return session, ok
}
