package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srikandi-id/harvester/internal/analytics"
	"github.com/srikandi-id/harvester/internal/storage"
	"github.com/srikandi-id/harvester/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestServer(t *testing.T, reader Reader) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(0, reader, testLogger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func seededStore() *storage.MemoryStore {
	return storage.NewMemoryStore(
		types.ArticleRecord{Title: "Kasus KDRT", Link: "https://a.id/1", Date: "12/02/2024", Content: "isi", Source: "Kompas.com", KeywordsFound: []string{"kdrt"}},
		types.ArticleRecord{Title: "Femicide", Link: "https://a.id/2", Date: "13 Feb 2024", Content: "isi", Source: "Detik.com", KeywordsFound: []string{"femicide"}},
	)
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, seededStore())
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestArticlesFilterBySource(t *testing.T) {
	srv := newTestServer(t, seededStore())

	var all []article
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/articles", &all))
	assert.Len(t, all, 2)

	var detik []article
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/articles?source=Detik.com", &detik))
	require.Len(t, detik, 1)
	assert.Equal(t, "https://a.id/2", detik[0].Link)
	assert.Equal(t, []string{"femicide"}, detik[0].KeywordsFound)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/articles?limit=abc", &errBody))
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, seededStore())

	var rep analytics.Report
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/report?top=5", &rep))
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, "2024-02-12", rep.FirstDay)
	assert.Equal(t, "2024-02-13", rep.LastDay)
}

type failingReader struct{}

func (failingReader) Find(context.Context, storage.Query) ([]types.ArticleRecord, error) {
	return nil, errors.New("down")
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, failingReader{})

	var body map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/report", &body))
	assert.Equal(t, "store unavailable", body["error"])
}
