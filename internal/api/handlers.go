package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/tracker"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func respondMapNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, "not_found", "map not found")
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ping(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "not_ready", "state storage unavailable")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// State handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tracker.State())
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tracker.Stats())
}

func (s *Server) handleSwitchCategory(w http.ResponseWriter, r *http.Request) {
	var req models.SwitchCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Category == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "category is required")
		return
	}

	s.tracker.SwitchCategory(r.Context(), req.Category)
	respondJSON(w, http.StatusOK, s.tracker.State())
}

func (s *Server) handleToggleAutoDetect(w http.ResponseWriter, r *http.Request) {
	enabled := s.tracker.ToggleAutoDetect(r.Context())
	respondJSON(w, http.StatusOK, models.AutoDetectResponse{AutoDetectEnabled: enabled})
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tracker.Goal(r.Context()))
}

// Map handlers

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	outcome := s.tracker.Advance(r.Context())
	respondJSON(w, http.StatusOK, models.AdvanceResponse{
		Outcome: outcome.String(),
		State:   s.tracker.State(),
	})
}

// handleGetSnapshot returns the persisted form of the tracker, suitable for
// restoring through a snapshot file
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	maps := s.tracker.Maps(category)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"maps":  maps,
		"total": len(maps),
	})
}

func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Target < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "target must not be negative")
		return
	}

	rec, err := s.tracker.Create(r.Context(), req.Name, req.Category, req.Target)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptyName) {
			respondError(w, http.StatusBadRequest, "validation_error", "name is required")
			return
		}
		slog.Error("failed to create map", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create map")
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.tracker.Get(chi.URLParam(r, "id"))
	if !ok {
		respondMapNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	if !s.tracker.Delete(r.Context(), chi.URLParam(r, "id")) {
		respondMapNotFound(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "map deleted",
	})
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.tracker.Increment(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		respondMapNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.tracker.Reset(r.Context(), id) {
		respondMapNotFound(w)
		return
	}

	rec, _ := s.tracker.Get(id)
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	if !s.tracker.Focus(r.Context(), chi.URLParam(r, "id")) {
		respondMapNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, s.tracker.State())
}
