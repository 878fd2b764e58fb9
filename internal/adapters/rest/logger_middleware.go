package rest

import (
	"net/http"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/port"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// HTTPMetrics - счетчик запросов по шаблону маршрута
type HTTPMetrics interface {
	ObserveHTTPRequest(method, route, status string)
}

// LoggerMiddleware создает контекстный логгер и trace_id для каждого запроса.
// metrics может быть nil.
func LoggerMiddleware(logger port.LoggerPort, metrics HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			w.Header().Set("X-Trace-ID", traceID)

			coreLogger := logger.WithFields(port.Fields{"trace_id": traceID})
			httpLogger := coreLogger.WithFields(port.Fields{
				"http_method": r.Method,
				"http_path":   r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			ctx := r.Context()
			ctx = contextkeys.ContextWithLogger(ctx, coreLogger)
			ctx = contextkeys.ContextWithTraceID(ctx, traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			httpLogger.Debug("Request started", nil)

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpLogger.Info("Request finished", port.Fields{
				"status_code":   status,
				"bytes_written": ww.BytesWritten(),
				"duration_ms":   time.Since(startTime).Milliseconds(),
			})

			if metrics != nil {
				route := "unmatched"
				// RouteContext заполняется роутером ниже по цепочке
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(status))
			}
		})
	}
}
