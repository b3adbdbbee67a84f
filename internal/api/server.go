// Package api exposes the HTTP interface for the migration service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopmigrate/internal/metrics"
	"shopmigrate/internal/migrate"
	"shopmigrate/internal/runner"
)

// Server wires HTTP handlers to the runner and run store.
type Server struct {
	router   chi.Router
	runStore migrate.RunStore
	runner   *runner.Runner
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runStore migrate.RunStore, r *runner.Runner, logger *zap.Logger) *Server {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runStore: runStore,
		runner:   r,
		logger:   logger,
	}

	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(s.loggingMiddleware)
	router.Use(s.recoverMiddleware)
	router.Use(timeoutMiddleware(60 * time.Second))

	router.Get("/healthz", s.healthz)
	router.Get("/readyz", s.readyz)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/v1", func(router chi.Router) {
		router.Route("/migrations", func(router chi.Router) {
			router.Post("/", s.submitMigration)
			router.Route("/{run_id}", func(router chi.Router) {
				router.Get("/status", s.getRunStatus)
				router.Get("/result", s.getRunResult)
			})
		})
	})

	s.router = router
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type migrationRequest struct {
	StartURL        string `json:"start_url"`
	DestinationBase string `json:"destination_base"`
	ExportPath      string `json:"export_path"`
	MaxPages        int    `json:"max_pages"`
}

func (s *Server) submitMigration(w http.ResponseWriter, r *http.Request) {
	var req migrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.StartURL == "" {
		s.writeError(w, http.StatusBadRequest, "start_url is required")
		return
	}

	run, err := s.runner.Submit(r.Context(), migrate.RunParameters{
		StartURL:        req.StartURL,
		DestinationBase: req.DestinationBase,
		ExportPath:      req.ExportPath,
		MaxPages:        req.MaxPages,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The run outlives the request; detach it from the request context.
	go func() {
		if err := s.runner.Execute(context.Background(), run); err != nil {
			s.logger.Error("migration run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID})
}

func (s *Server) getRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.runStore.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": run})
}

type runResult struct {
	Run   migrate.Run          `json:"run"`
	Pages []migrate.PageRecord `json:"pages"`
}

func (s *Server) getRunResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.runStore.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	pages, err := s.runStore.ListPages(r.Context(), runID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to fetch run pages")
		return
	}
	s.writeJSON(w, http.StatusOK, runResult{Run: run, Pages: pages})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		duration := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, duration)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", duration.Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
