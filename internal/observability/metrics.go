package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for a harvest process.
type Metrics struct {
	// Request metrics
	RequestsTotal  atomic.Int64
	RequestsFailed atomic.Int64

	// Candidate metrics
	CandidatesTotal   atomic.Int64
	CandidatesDropped atomic.Int64

	// Harvest decisions
	ArticlesAccepted   atomic.Int64
	ArticlesDuplicate  atomic.Int64
	ArticlesIrrelevant atomic.Int64

	// Persistence metrics
	ArticlesStored    atomic.Int64
	ArticlesConflicts atomic.Int64
	ArticlesSpilled   atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"srikandi_requests_total", "Search page requests issued", m.RequestsTotal.Load()},
		{"srikandi_requests_failed_total", "Search page requests that failed", m.RequestsFailed.Load()},
		{"srikandi_candidates_total", "Candidates extracted from result pages", m.CandidatesTotal.Load()},
		{"srikandi_candidates_dropped_total", "Result elements skipped during extraction", m.CandidatesDropped.Load()},
		{"srikandi_articles_accepted_total", "Articles accepted into a run", m.ArticlesAccepted.Load()},
		{"srikandi_articles_duplicate_total", "Candidates rejected as already seen", m.ArticlesDuplicate.Load()},
		{"srikandi_articles_irrelevant_total", "Candidates rejected as irrelevant", m.ArticlesIrrelevant.Load()},
		{"srikandi_articles_stored_total", "Articles inserted into the store", m.ArticlesStored.Load()},
		{"srikandi_articles_conflicts_total", "Inserts ignored on duplicate link", m.ArticlesConflicts.Load()},
		{"srikandi_articles_spilled_total", "Articles written to the fallback file", m.ArticlesSpilled.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer serves metrics until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":      m.RequestsTotal.Load(),
		"requests_failed":     m.RequestsFailed.Load(),
		"candidates_total":    m.CandidatesTotal.Load(),
		"candidates_dropped":  m.CandidatesDropped.Load(),
		"articles_accepted":   m.ArticlesAccepted.Load(),
		"articles_duplicate":  m.ArticlesDuplicate.Load(),
		"articles_irrelevant": m.ArticlesIrrelevant.Load(),
		"articles_stored":     m.ArticlesStored.Load(),
		"articles_conflicts":  m.ArticlesConflicts.Load(),
		"articles_spilled":    m.ArticlesSpilled.Load(),
	}
}
