package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	markerDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/marker/domain"
	pipelineDomain "github.com/reshetovitsme/patchnotes-feed/internal/modules/pipeline/domain"
	"github.com/reshetovitsme/patchnotes-feed/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// StatusProvider exposes the state of the ingestion pipeline
type StatusProvider interface {
	Stage() pipelineDomain.Stage
	Marker() markerDomain.Marker
	LastReport() (pipelineDomain.CycleReport, bool)
}

// FeedGenerator builds the RSS feed of published announcements
type FeedGenerator interface {
	GenerateFeed(baseURL string) (*feeds.Feed, error)
}

// Server serves health, pipeline status and the published announcements feed
type Server struct {
	cfg     *config.Config
	status  StatusProvider
	journal FeedGenerator
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, status StatusProvider, journal FeedGenerator) *Server {
	return &Server{
		cfg:     cfg,
		status:  status,
		journal: journal,
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the routed handler wrapped in access logging and recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /rss", s.handleRSSFeed)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type statusResponse struct {
	Stage     pipelineDomain.Stage        `json:"stage"`
	Marker    string                      `json:"marker,omitempty"`
	MarkerAt  *time.Time                  `json:"marker_updated_at,omitempty"`
	LastCycle *pipelineDomain.CycleReport `json:"last_cycle,omitempty"`
	LastError string                      `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	marker := s.status.Marker()
	resp := statusResponse{
		Stage:  s.status.Stage(),
		Marker: marker.Value,
	}
	if !marker.UpdatedAt.IsZero() {
		resp.MarkerAt = &marker.UpdatedAt
	}
	if report, ok := s.status.LastReport(); ok {
		resp.LastCycle = &report
		resp.LastError = report.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Error encoding status", "error", err)
	}
}

func (s *Server) handleRSSFeed(w http.ResponseWriter, r *http.Request) {
	// Get base URL from request
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	feed, err := s.journal.GenerateFeed(baseURL)
	if err != nil {
		s.logger.Error("Error generating feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300") // Cache for 5 minutes
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
