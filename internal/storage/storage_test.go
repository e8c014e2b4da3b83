package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var scrapedAt = time.Date(2024, 2, 12, 8, 30, 0, 0, time.UTC)

func article(link, source string, keywords ...string) types.ArticleRecord {
	return types.ArticleRecord{
		Title:         "Judul " + link,
		Link:          link,
		Date:          "12/02/2024",
		Content:       "Isi berita",
		Image:         types.NoImage,
		Source:        source,
		ScrapedAt:     scrapedAt,
		KeywordsFound: keywords,
	}
}

func TestMemoryStoreEnforcesUniqueLinks(t *testing.T) {
	store := NewMemoryStore(article("https://a.id/1", "Detik.com"))
	ctx := context.Background()

	res, err := store.InsertMany(ctx, []types.ArticleRecord{
		article("https://a.id/1", "Detik.com"),
		article("https://a.id/2", "Kompas.com"),
		article("https://a.id/2", "Kompas.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, InsertResult{Inserted: 1, Conflicts: 2}, res)

	links, err := store.Links(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.id/1", "https://a.id/2"}, links)

	kompas, err := store.Find(ctx, Query{Source: "Kompas.com"})
	require.NoError(t, err)
	require.Len(t, kompas, 1)
	assert.Equal(t, "https://a.id/2", kompas[0].Link)
}

func TestClassifyBulkError(t *testing.T) {
	dup := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Index: 1, Code: 11000, Message: "E11000 duplicate key"}},
	}}
	res, err := classifyBulkError(3, dup, "mongodb")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Conflicts)

	mixed := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{
		{WriteError: mongo.WriteError{Index: 0, Code: 11000}},
		{WriteError: mongo.WriteError{Index: 2, Code: 121, Message: "validation failed"}},
	}}
	res, err = classifyBulkError(3, mixed, "mongodb")
	var serr *types.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, []int{2}, res.Failed)

	res, err = classifyBulkError(3, errors.New("server selection timeout"), "mongodb")
	require.Error(t, err)
	assert.Equal(t, InsertResult{}, res)
}

func TestSpillRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewSpiller(dir, testLogger)
	s.now = func() time.Time { return scrapedAt }

	records := []types.ArticleRecord{
		article("https://a.id/1", "Detik.com", "kdrt", "pelecehan"),
		article("https://a.id/2", "Suara.com", "femicide"),
	}

	path, err := s.Write(records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "failed_inserts_20240212_083000.json"), path)

	second, err := s.Write(records[:1])
	require.NoError(t, err)
	assert.NotEqual(t, path, second)

	got, err := ReadSpill(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"scraped_at": "2024-02-12T08:30:00Z"`)
	assert.Contains(t, string(raw), "\n  {")
}

func TestGatewaySavesBatch(t *testing.T) {
	store := NewMemoryStore(article("https://a.id/1", "Detik.com"))
	metrics := observability.NewMetrics(testLogger)
	g := NewGateway(store, NewSpiller(t.TempDir(), testLogger), time.Second, metrics, testLogger)

	res := g.Save(context.Background(), []types.ArticleRecord{
		article("https://a.id/1", "Detik.com"),
		article("https://a.id/3", "CNN Indonesia"),
	})
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Conflicts)
	assert.Zero(t, res.Spilled)
	assert.Equal(t, int64(1), metrics.ArticlesStored.Load())
	assert.Equal(t, int64(1), metrics.ArticlesConflicts.Load())
}

func TestGatewayEmptyBatchIsNoop(t *testing.T) {
	store := NewMemoryStore()
	g := NewGateway(store, NewSpiller(t.TempDir(), testLogger), time.Second, nil, testLogger)

	res := g.Save(context.Background(), nil)
	assert.Equal(t, SaveResult{}, res)
	assert.Zero(t, store.InsertCalls())
}

func TestGatewaySpillsOnStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	store.InsertErr = types.ErrStoreUnavailable
	dir := t.TempDir()
	g := NewGateway(store, NewSpiller(dir, testLogger), time.Second, nil, testLogger)

	records := []types.ArticleRecord{
		article("https://a.id/1", "Detik.com", "kdrt"),
		article("https://a.id/2", "Tribunnews.com", "trafficking"),
		article("https://a.id/3", "Suara.com", "femicide"),
	}
	res := g.Save(context.Background(), records)

	assert.ErrorIs(t, res.Err, types.ErrStoreUnavailable)
	assert.Equal(t, 3, res.Spilled)
	require.NotEmpty(t, res.SpillPath)
	assert.True(t, strings.HasPrefix(filepath.Base(res.SpillPath), "failed_inserts_"))

	got, err := ReadSpill(res.SpillPath)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

// partialStore takes some records of a batch and rejects the rest.
type partialStore struct {
	*MemoryStore
	result InsertResult
}

func (p *partialStore) InsertMany(ctx context.Context, records []types.ArticleRecord) (InsertResult, error) {
	return p.result, &types.StorageError{Backend: "partial", Op: "insert many", Err: errors.New("write error on index 2")}
}

func TestGatewaySpillsOnlyFailedRecords(t *testing.T) {
	store := &partialStore{
		MemoryStore: NewMemoryStore(),
		result:      InsertResult{Inserted: 1, Conflicts: 1, Failed: []int{2}},
	}
	g := NewGateway(store, NewSpiller(t.TempDir(), testLogger), time.Second, nil, testLogger)

	records := []types.ArticleRecord{
		article("https://a.id/1", "Detik.com", "kdrt"),
		article("https://a.id/2", "Kompas.com", "kdrt"),
		article("https://a.id/3", "Suara.com", "femicide", "trafficking"),
	}
	records[2].Image = "https://img.suara.com/3.jpg"
	res := g.Save(context.Background(), records)

	require.Error(t, res.Err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.Spilled)
	require.NotEmpty(t, res.SpillPath)

	got, err := ReadSpill(res.SpillPath)
	require.NoError(t, err)
	assert.Equal(t, []types.ArticleRecord{records[2]}, got)
}

func TestGatewaySpillFailureDoesNotPanic(t *testing.T) {
	store := NewMemoryStore()
	store.InsertErr = types.ErrStoreUnavailable

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	g := NewGateway(store, NewSpiller(blocker, testLogger), time.Second, nil, testLogger)

	res := g.Save(context.Background(), []types.ArticleRecord{article("https://a.id/1", "Detik.com")})
	assert.Error(t, res.Err)
	assert.Zero(t, res.Spilled)
	assert.Empty(t, res.SpillPath)
}

func TestExportFormats(t *testing.T) {
	records := []types.ArticleRecord{article("https://a.id/1", "Detik.com", "kdrt", "pelecehan")}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, "csv", records))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "kdrt; pelecehan", rows[1][7])
	assert.Equal(t, "2024-02-12T08:30:00Z", rows[1][6])

	buf.Reset()
	require.NoError(t, Export(&buf, "jsonl", append(records, records...)))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, Export(&buf, "json", nil))
	assert.Equal(t, "[]\n", buf.String())

	assert.Error(t, Export(&buf, "xml", records))
}
