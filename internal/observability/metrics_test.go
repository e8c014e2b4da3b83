package observability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srikandi-id/harvester/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RequestsTotal.Add(3)
	m.ArticlesAccepted.Add(2)
	m.ArticlesSpilled.Add(1)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "# TYPE srikandi_requests_total counter")
	assert.Contains(t, body, "srikandi_requests_total 3\n")
	assert.Contains(t, body, "srikandi_articles_accepted_total 2\n")
	assert.Contains(t, body, "srikandi_articles_spilled_total 1\n")

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap["requests_total"])
	assert.Equal(t, int64(0), snap["articles_stored"])
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.log")

	logger, closer, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json", Output: path}, false)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "source", "Detik.com")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"source":"Detik.com"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
