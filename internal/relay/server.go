package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/practice-tracker/internal/models"
)

// Router returns the relay HTTP surface
func (r *Relay) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/ws", r.hub.ServeHTTP)

	router.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))

		api.Get("/state", r.handleState)
		api.Post("/auto-detect/toggle", r.handleToggle)
		api.Post("/detections", r.handleDetection)
		api.Post("/maps/add", r.handleAddMap)
		api.Post("/maps/{id}/increment", r.handleIncrement)
		api.Post("/maps/{id}/reset", r.handleReset)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (r *Relay) handleState(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.State())
}

func (r *Relay) handleIncrement(w http.ResponseWriter, req *http.Request) {
	count, err := r.Increment(chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "new_count": count})
}

func (r *Relay) handleReset(w http.ResponseWriter, req *http.Request) {
	if err := r.Reset(chi.URLParam(req, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (r *Relay) handleToggle(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, models.AutoDetectResponse{AutoDetectEnabled: r.ToggleAutoDetect()})
}

func (r *Relay) handleAddMap(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	id, err := r.AddMap(q.Get("map_name"), models.Category(q.Get("category")))
	switch {
	case errors.Is(err, ErrEmptyName):
		writeError(w, http.StatusBadRequest, "map_name is required")
		return
	case errors.Is(err, ErrMapExists):
		writeError(w, http.StatusBadRequest, "Map already exists")
		return
	case err != nil:
		slog.Error("failed to add map", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add map")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "map_id": id})
}

func (r *Relay) handleDetection(w http.ResponseWriter, req *http.Request) {
	var d Detection
	if err := json.NewDecoder(req.Body).Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reason := r.Detect(d)
	status := http.StatusOK
	if reason == ReasonAccepted {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]interface{}{
		"accepted": reason == ReasonAccepted,
		"reason":   reason,
	})
}
