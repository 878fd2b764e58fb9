package rest

import (
	"context"
	"fmt"
	"net/http"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// RouterDeps - все, что нужно роутеру. Metrics и MetricsHandler могут быть nil.
type RouterDeps struct {
	Sessions       usecases_port.SessionRegistryUseCasePort
	Browse         *BrowseHandler
	Inquiries      *InquiryHandler
	InquiryLimiter *RateLimiter
	Metrics        HTTPMetrics
	MetricsHandler http.Handler
	AllowedOrigins []string
	Logger         port.LoggerPort
}

// NewRouter собирает chi-роутер API
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(deps.Logger, deps.Metrics), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, "X-Trace-ID"},
		ExposedHeaders:   []string{SessionHeader, "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", deps.Browse.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(deps.Sessions))

			r.Get("/sessions/current/filters", deps.Browse.GetFilters)

			r.Route("/filters", func(r chi.Router) {
				r.Put("/", deps.Browse.ReplaceFilters)
				r.Delete("/", deps.Browse.ResetFilters)
				r.Post("/search", deps.Browse.Search)
				r.Get("/active-count", deps.Browse.ActiveCount)
				r.Get("/vocabulary", deps.Browse.Vocabulary)

				r.Post("/dialog", deps.Browse.OpenDialog)
				r.Patch("/dialog", deps.Browse.EditDialog)
				r.Delete("/dialog", deps.Browse.CancelDialog)
				r.Post("/dialog/apply", deps.Browse.ApplyDialog)
				r.Post("/dialog/reset", deps.Browse.ResetDialog)
			})

			r.Route("/listing", func(r chi.Router) {
				r.Get("/", deps.Browse.GetListing)
				r.Put("/sort", deps.Browse.SetSort)
				r.Put("/page", deps.Browse.GoToPage)
				r.Post("/retry", deps.Browse.RetryListing)
			})

			r.Route("/map", func(r chi.Router) {
				r.Get("/", deps.Browse.GetMap)
				r.Post("/load", deps.Browse.LoadMap)
				r.Post("/reset", deps.Browse.ResetMap)
				r.Post("/focus", deps.Browse.FocusMap)
			})

			if deps.Inquiries != nil {
				r.Group(func(r chi.Router) {
					if deps.InquiryLimiter != nil {
						r.Use(deps.InquiryLimiter.Limit)
					}
					r.Post("/inquiries", deps.Inquiries.CreateInquiry)
				})
			}
		})
	})

	return r
}

// Server - наш REST API сервер
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(cfg ServerConfig, handler http.Handler, baseLogger port.LoggerPort) *Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(port.Fields{"component": "rest_server"}),
	}
}

// Start запускает HTTP-сервер, блокируется до остановки
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
