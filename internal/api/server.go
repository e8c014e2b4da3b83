// Package api serves the stored corpus read-only to the dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/srikandi-id/harvester/internal/analytics"
	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/storage"
	"github.com/srikandi-id/harvester/internal/types"
)

// Reader is the read path the API needs from a store.
type Reader interface {
	Find(ctx context.Context, q storage.Query) ([]types.ArticleRecord, error)
}

// Server provides the read-only REST API.
type Server struct {
	mux    *http.ServeMux
	port   int
	reader Reader
	logger *slog.Logger
}

// article is the projection the dashboard reads.
type article struct {
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	Date          string   `json:"date"`
	Content       string   `json:"content"`
	Source        string   `json:"source"`
	KeywordsFound []string `json:"keywords_found"`
}

// NewServer creates a new API server.
func NewServer(port int, reader Reader, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		port:   port,
		reader: reader,
		logger: logger.With("component", "api_server"),
	}

	s.registerRoutes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("API server starting", "addr", srv.Addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("API server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/articles", s.handleArticles)
	s.mux.HandleFunc("GET /api/report", s.handleReport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	records, ok := s.find(w, r, q)
	if !ok {
		return
	}

	out := make([]article, len(records))
	for i, rec := range records {
		out[i] = article{
			Title:         rec.Title,
			Link:          rec.Link,
			Date:          rec.Date,
			Content:       rec.Content,
			Source:        rec.Source,
			KeywordsFound: rec.KeywordsFound,
		}
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	top := 0
	if v := r.URL.Query().Get("top"); v != "" {
		if top, err = strconv.Atoi(v); err != nil || top < 1 {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "top must be a positive integer"})
			return
		}
	}
	records, ok := s.find(w, r, q)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, analytics.Build(records, analytics.Options{TopWords: top}))
}

func (s *Server) find(w http.ResponseWriter, r *http.Request, q storage.Query) ([]types.ArticleRecord, bool) {
	records, err := s.reader.Find(r.Context(), q)
	if err != nil {
		s.logger.Error("store read failed", "source", q.Source, "error", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable"})
		return nil, false
	}
	return records, true
}

func parseQuery(r *http.Request) (storage.Query, error) {
	q := storage.Query{Source: r.URL.Query().Get("source")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return q, errors.New("limit must be a positive integer")
		}
		q.Limit = n
	}
	return q, nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response write failed", "error", err)
	}
}
