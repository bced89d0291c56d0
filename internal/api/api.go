// Package api exposes the wellness engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/wellness-engine/internal/wellness"
)

// Engine is the part of the wellness engine served over HTTP
type Engine interface {
	ComputeOrGet(ctx context.Context, userID string, forceRefresh bool) wellness.DailyResult
	GetHistory(ctx context.Context, userID string, limit int) ([]wellness.DailyResult, error)
	Invalidate(userID string) int
}

// Server routes requests to the engine
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewServer creates a new API server
func NewServer(engine Engine, logger *slog.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

// Register adds the API routes to mux
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/wellness/{user}/daily", s.handleDaily)
	mux.HandleFunc("GET /api/wellness/{user}/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/wellness/{user}/cache", s.handleInvalidate)
}

// Handler returns the API routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.logRequests(mux)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	refresh := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid refresh parameter: %v", err), http.StatusBadRequest)
			return
		}
		refresh = b
	}

	s.writeJSON(w, http.StatusOK, s.engine.ComputeOrGet(r.Context(), userID, refresh))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit parameter (expected a non-negative integer)", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := s.engine.GetHistory(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("Failed to load history", "user_id", userID, "error", err)
		http.Error(w, "History temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	removed := s.engine.Invalidate(userID)

	s.logger.Info("Cache invalidated", "user_id", userID, "entries", removed)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"removed": removed,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
