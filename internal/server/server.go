// Package server exposes the pipeline over HTTP: a JSON snapshot of the
// latest run, an SSE stream for the situation report, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"threatmap/internal/logger"
	"threatmap/internal/metrics"
	"threatmap/internal/model"
	"threatmap/internal/summary"
)

// Archive is the optional event history backend. Only the Postgres seen
// store provides one.
type Archive interface {
	RecentEvents(limit int) ([]model.ThreatEvent, error)
}

type Server struct {
	router        chi.Router
	reporter      *summary.Reporter
	metrics       *metrics.Metrics
	archive       Archive // nil when no archiving backend is configured
	reportTimeout time.Duration

	mu     sync.RWMutex
	latest *model.RunReport
}

func New(reporter *summary.Reporter, m *metrics.Metrics, archive Archive, reportTimeout time.Duration) *Server {
	s := &Server{
		reporter:      reporter,
		metrics:       m,
		archive:       archive,
		reportTimeout: reportTimeout,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/events/archive", s.handleArchive)
	r.Get("/api/report/stream", s.handleReportStream)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReport publishes the outcome of a pipeline run. Called by the refresh
// loop after every cycle.
func (s *Server) SetReport(report model.RunReport) {
	s.mu.Lock()
	s.latest = &report
	s.mu.Unlock()
}

func (s *Server) report() *model.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetStats())
}

// handleEvents returns the latest run as a single JSON document.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	report := s.report()
	if report == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no pipeline run completed yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleArchive returns recent events from the persistent archive, newest
// first. Only available when the Postgres backend is configured.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "event archive not configured",
		})
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	events, err := s.archive.RecentEvents(limit)
	if err != nil {
		logger.Error("archive query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// handleReportStream streams the situation report as Server-Sent Events.
// Frame order: status, sources, zero or more content frames, then done.
// Any failure after the stream opens is delivered as an error frame.
func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, flusher: flusher}

	report := s.report()
	if report == nil {
		sse.send(frame{Type: "error", Message: "no pipeline run completed yet"})
		return
	}

	sse.send(frame{Type: "status", Message: "collecting current events"})
	sse.send(frame{
		Type:     "sources",
		Events:   report.Events,
		Display:  report.Display,
		Band:     report.Band,
		Expanded: report.Expanded,
	})

	if !s.reporter.Available() {
		sse.send(frame{Type: "done"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.reportTimeout)
	defer cancel()

	sse.send(frame{Type: "status", Message: "generating situation report"})

	chunks, err := s.reporter.Stream(ctx, report.Events)
	if err != nil {
		logger.Error("report stream failed to start", "error", err)
		sse.send(frame{Type: "error", Message: err.Error()})
		return
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			logger.Error("report stream interrupted", "error", chunk.Err)
			sse.send(frame{Type: "error", Message: chunk.Err.Error()})
			return
		}
		if chunk.Content != "" {
			if !sse.send(frame{Type: "content", Content: chunk.Content}) {
				return // client went away
			}
		}
	}

	sse.send(frame{Type: "done"})
}

// frame is one typed SSE payload. Empty fields are omitted so each frame
// type carries only what it needs.
type frame struct {
	Type     string                       `json:"type"`
	Message  string                       `json:"message,omitempty"`
	Content  string                       `json:"content,omitempty"`
	Events   []model.ThreatEvent          `json:"events,omitempty"`
	Display  map[string]model.GeoLocation `json:"display,omitempty"`
	Band     string                       `json:"band,omitempty"`
	Expanded bool                         `json:"expanded,omitempty"`
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) send(f frame) bool {
	payload, err := json.Marshal(f)
	if err != nil {
		return false
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return false
	}
	if _, err := s.w.Write(payload); err != nil {
		return false
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return false
	}
	s.flusher.Flush()
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
