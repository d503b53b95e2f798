package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/practice-tracker/internal/config"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/tracker"
	"github.com/terra-clan/practice-tracker/internal/wshub"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	config      config.ServerConfig
	router      *chi.Mux
	tracker     *tracker.Tracker
	ready       Pinger
	hub         *wshub.Hub
	unsubscribe func()
}

// NewServer creates a new API server. ready may be nil.
func NewServer(cfg config.ServerConfig, tr *tracker.Tracker, ready Pinger) *Server {
	s := &Server{
		config:  cfg,
		tracker: tr,
		ready:   ready,
	}

	s.hub = wshub.NewHub(wshub.Options{
		OnConnect: func(c *wshub.Client) {
			ev := tracker.Event{Type: models.EventState, State: tr.State()}
			if err := c.Send(ev.Message()); err != nil {
				slog.Warn("failed to send initial state", "client_id", c.ID(), "error", err)
			}
		},
	})
	s.unsubscribe = tr.Subscribe(func(ev tracker.Event) {
		if err := s.hub.Broadcast(ev.Message()); err != nil {
			slog.Error("failed to broadcast event", "type", ev.Type, "error", err)
		}
	})

	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Close stops forwarding tracker events and disconnects stream clients
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	// The UI runs from a local file or dev server
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Event stream, outside the request timeout
	r.Get("/ws", s.hub.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/state", s.handleGetState)
		r.Get("/stats", s.handleGetStats)

		r.Route("/maps", func(r chi.Router) {
			r.Get("/", s.handleListMaps)
			r.Post("/", s.handleCreateMap)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMap)
				r.Delete("/", s.handleDeleteMap)
				r.Post("/increment", s.handleIncrement)
				r.Post("/reset", s.handleReset)
				r.Post("/focus", s.handleFocus)
			})
		})

		r.Put("/category", s.handleSwitchCategory)
		r.Post("/auto-detect/toggle", s.handleToggleAutoDetect)
		r.Post("/goal", s.handleGoal)
		r.Post("/advance", s.handleAdvance)
		r.Get("/snapshot", s.handleGetSnapshot)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
