package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/source"
	"github.com/srikandi-id/harvester/internal/storage"
	"github.com/srikandi-id/harvester/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var fixedTime = time.Date(2024, 2, 12, 8, 30, 0, 0, time.UTC)

// fakeAdapter returns canned candidates per keyword and records its calls.
type fakeAdapter struct {
	name    types.SourceName
	results map[string][]types.CandidateRecord

	mu    sync.Mutex
	calls []string
}

func (f *fakeAdapter) Name() types.SourceName { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context, keyword string, limit int) []types.CandidateRecord {
	f.mu.Lock()
	f.calls = append(f.calls, keyword)
	f.mu.Unlock()
	out := f.results[keyword]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeAdapter) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func cand(title, link string) types.CandidateRecord {
	return types.CandidateRecord{
		Title:       title,
		Link:        link,
		Summary:     "...",
		PublishedAt: "12/02/2024",
		ImageURL:    types.NoImage,
		Source:      types.SourceDetik,
	}
}

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newHarvester(store LinkSource, opts Options, sl *sleepLog, extra ...Option) *Harvester {
	if sl == nil {
		sl = &sleepLog{}
	}
	options := append([]Option{WithClock(func() time.Time { return fixedTime }), WithSleep(sl.sleep)}, extra...)
	return New(store, opts, testLogger, options...)
}

func TestRelevanceFilter(t *testing.T) {
	var f RelevanceFilter
	c := types.CandidateRecord{Title: "Kasus KDRT di Jakarta", Summary: "Pelaku Ditangkap"}

	assert.True(t, f.IsRelevant(c, "kdrt"))
	assert.True(t, f.IsRelevant(c, "KDRT di"))
	assert.True(t, f.IsRelevant(c, "jakarta pelaku"), "title and summary are space-joined")
	assert.False(t, f.IsRelevant(c, "pemerkosaan"))
	assert.False(t, f.IsRelevant(c, "jakartapelaku"))

	assert.Equal(t, []string{"kdrt", "pelaku"}, f.Matches(c, []string{"kdrt", "femicide", "pelaku"}))
	assert.Empty(t, f.Matches(c, []string{"femicide"}))
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(4)
	d.Seed([]string{"https://a.id/1", "", "https://a.id/1"})
	assert.Equal(t, 1, d.Count())
	assert.True(t, d.Seen("https://a.id/1"))
	assert.False(t, d.Seen("https://a.id/1/"), "links compare exactly")

	d.MarkSeen("https://a.id/2")
	assert.True(t, d.Seen("https://a.id/2"))
	assert.Equal(t, 2, d.Count())
}

func TestRunAcceptsOnlyRelevant(t *testing.T) {
	src := &fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{
		"kdrt": {
			cand("Kasus KDRT di Jakarta", "http://x/1"),
			cand("Resep kue", "http://x/2"),
		},
	}}
	h := newHarvester(storage.NewMemoryStore(), Options{PerSourceLimit: 30}, nil)

	res, err := h.Run(context.Background(), []string{"kdrt"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	got := res.Records[0]
	assert.Equal(t, "http://x/1", got.Link)
	assert.Equal(t, []string{"kdrt"}, got.KeywordsFound)
	assert.Equal(t, "Kasus KDRT di Jakarta", got.Title)
	assert.Equal(t, "...", got.Content)
	assert.Equal(t, string(types.SourceDetik), got.Source)
	assert.Equal(t, fixedTime, got.ScrapedAt)
	assert.False(t, res.QuotaReached)
	assert.Equal(t, 1, res.Stats.Irrelevant)
	assert.NotEmpty(t, res.RunID)
}

func TestRunSkipsStoredLinks(t *testing.T) {
	store := storage.NewMemoryStore(types.ArticleRecord{Link: "http://x/1", Title: "lama"})
	src := &fakeAdapter{name: types.SourceCNN, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("Kasus KDRT di Jakarta", "http://x/1"), cand("KDRT lagi", "http://x/3")},
	}}
	h := newHarvester(store, Options{}, nil)

	res, err := h.Run(context.Background(), []string{"kdrt"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "http://x/3", res.Records[0].Link)
	assert.Equal(t, 1, res.Stats.Seeded)
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestRunSeedFailureDegrades(t *testing.T) {
	store := storage.NewMemoryStore()
	store.LinksErr = errors.New("connection refused")
	src := &fakeAdapter{name: types.SourceCNN, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("KDRT", "http://x/1"), cand("KDRT", "http://x/1")},
	}}

	res, err := newHarvester(store, Options{}, nil).Run(context.Background(), []string{"kdrt"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1, "in-run dedup still holds")
	assert.Zero(t, res.Stats.Seeded)
}

func TestRunDropsInvalidCandidates(t *testing.T) {
	src := &fakeAdapter{name: types.SourceKompas, results: map[string][]types.CandidateRecord{
		"kdrt": {
			cand("kdrt tanpa link", ""),
			cand("", "http://x/1"),
			cand("kdrt relatif", "/berita/1"),
			cand("kdrt valid", "https://x/2"),
		},
	}}
	res, err := newHarvester(nil, Options{}, nil).Run(context.Background(), []string{"kdrt"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "https://x/2", res.Records[0].Link)
	assert.Equal(t, 3, res.Stats.Invalid)
}

func TestRunStopsAtQuota(t *testing.T) {
	var many []types.CandidateRecord
	for i := range 10 {
		many = append(many, cand("kasus kdrt", fmt.Sprintf("http://x/%d", i)))
	}
	first := &fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{"kdrt": many}}
	second := &fakeAdapter{name: types.SourceCNN, results: map[string][]types.CandidateRecord{"kdrt": many}}
	sl := &sleepLog{}
	metrics := observability.NewMetrics(testLogger)

	h := newHarvester(nil, Options{PerSourceLimit: 30, SourceDelay: 3 * time.Second, KeywordDelay: 5 * time.Second}, sl, WithMetrics(metrics))
	res, err := h.Run(context.Background(), []string{"kdrt", "pemerkosaan"}, source.NewRegistry(first, second), 4)
	require.NoError(t, err)

	assert.Len(t, res.Records, 4)
	assert.True(t, res.QuotaReached)
	assert.Equal(t, []string{"kdrt"}, first.Calls())
	assert.Empty(t, second.Calls(), "no adapter call after the quota is met")
	assert.Empty(t, sl.delays)
	assert.Equal(t, int64(4), metrics.ArticlesAccepted.Load())
}

func TestRunPacing(t *testing.T) {
	a := &fakeAdapter{name: types.SourceDetik}
	b := &fakeAdapter{name: types.SourceCNN}
	sl := &sleepLog{}

	h := newHarvester(nil, Options{SourceDelay: 3 * time.Second, KeywordDelay: 5 * time.Second}, sl)
	_, err := h.Run(context.Background(), []string{"kdrt", "femicide"}, source.NewRegistry(a, b), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"kdrt", "femicide"}, a.Calls())
	assert.Equal(t, []string{"kdrt", "femicide"}, b.Calls())
	assert.Equal(t, []time.Duration{3 * time.Second, 5 * time.Second, 3 * time.Second}, sl.delays)
}

func TestRunMergesKeywordsForRepeatedLink(t *testing.T) {
	src := &fakeAdapter{name: types.SourceSuara, results: map[string][]types.CandidateRecord{
		"kdrt":      {cand("KDRT dan pelecehan", "http://x/1")},
		"pelecehan": {cand("KDRT dan pelecehan", "http://x/1")},
		"femicide":  {cand("KDRT dan pelecehan", "http://x/1")},
	}}

	res, err := newHarvester(nil, Options{}, nil).Run(context.Background(),
		[]string{"kdrt", "pelecehan", "femicide"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"kdrt", "pelecehan"}, res.Records[0].KeywordsFound)
	assert.Equal(t, 1, res.Stats.Merged)
}

func TestRunMatchAllKeywords(t *testing.T) {
	src := &fakeAdapter{name: types.SourceTribun, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("Korban kdrt dan trafficking melapor", "http://x/1")},
	}}
	keywords := []string{"kdrt", "trafficking", "korban"}

	res, err := newHarvester(nil, Options{MatchAllKeywords: true}, nil).Run(context.Background(),
		keywords, source.NewRegistry(src), 10)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"kdrt", "trafficking", "korban"}, res.Records[0].KeywordsFound)
	assert.Equal(t, map[string]int{"kdrt": 1}, res.Stats.AcceptedByKeyword())
}

func TestRunMatchAllStillRequiresActiveKeyword(t *testing.T) {
	src := &fakeAdapter{name: types.SourceTribun, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("Kasus femicide", "http://x/1")},
	}}

	res, err := newHarvester(nil, Options{MatchAllKeywords: true}, nil).Run(context.Background(),
		[]string{"kdrt", "femicide"}, source.NewRegistry(src), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.Stats.Irrelevant)
	assert.Empty(t, res.Stats.AcceptedByKeyword())
}

func TestRunParallelMatchesSequential(t *testing.T) {
	build := func() *source.Registry {
		return source.NewRegistry(
			&fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{
				"kdrt": {cand("kdrt 1", "http://d/1"), cand("kdrt 2", "http://d/2")},
			}},
			&fakeAdapter{name: types.SourceCNN, results: map[string][]types.CandidateRecord{
				"kdrt": {cand("kdrt 2", "http://d/2"), cand("kdrt 3", "http://c/3")},
			}},
		)
	}

	seq, err := newHarvester(nil, Options{}, nil).Run(context.Background(), []string{"kdrt"}, build(), 3)
	require.NoError(t, err)
	par, err := newHarvester(nil, Options{ParallelSources: true}, nil).Run(context.Background(), []string{"kdrt"}, build(), 3)
	require.NoError(t, err)

	links := func(rs []types.ArticleRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Link)
		}
		return out
	}
	assert.Equal(t, []string{"http://d/1", "http://d/2", "http://c/3"}, links(seq.Records))
	assert.Equal(t, links(seq.Records), links(par.Records))
}

func TestRunCancelledReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("kdrt", "http://x/1")},
	}}
	b := &fakeAdapter{name: types.SourceCNN}

	h := newHarvester(nil, Options{SourceDelay: time.Second}, nil, WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))
	res, err := h.Run(ctx, []string{"kdrt"}, source.NewRegistry(a, b), 10)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Len(t, res.Records, 1)
	assert.Empty(t, b.Calls())
}

func TestRunRejectsBadInput(t *testing.T) {
	h := newHarvester(nil, Options{}, nil)
	_, err := h.Run(context.Background(), []string{"kdrt"}, source.NewRegistry(), 10)
	assert.Error(t, err)
	_, err = h.Run(context.Background(), []string{"kdrt"}, source.NewRegistry(&fakeAdapter{name: "x"}), 0)
	assert.Error(t, err)
}

func TestHarvestPersistsAndDefaultsTarget(t *testing.T) {
	store := storage.NewMemoryStore()
	src := &fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("Kasus KDRT", "http://x/1"), cand("Resep kue", "http://x/2")},
	}}
	deps := Deps{
		Harvester: newHarvester(store, Options{}, nil),
		Gateway:   storage.NewGateway(store, storage.NewSpiller(t.TempDir(), testLogger), time.Second, nil, testLogger),
		Keywords:  []string{"kdrt"},
		Sources:   source.NewRegistry(src),
	}

	out, err := Harvest(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Save.Inserted)
	require.Len(t, store.Records(), 1)
	assert.Equal(t, "http://x/1", store.Records()[0].Link)

	// A second run sees the stored link and accepts nothing new.
	out, err = Harvest(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Empty(t, out.Result.Records)
	assert.Len(t, store.Records(), 1)
}

func TestHarvestSavesAfterCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeAdapter{name: types.SourceDetik, results: map[string][]types.CandidateRecord{
		"kdrt": {cand("kdrt", "http://x/1")},
	}}
	deps := Deps{
		Harvester: newHarvester(store, Options{}, nil, WithSleep(func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		})),
		Gateway:  storage.NewGateway(store, storage.NewSpiller(t.TempDir(), testLogger), time.Second, nil, testLogger),
		Keywords: []string{"kdrt", "femicide"},
		Sources:  source.NewRegistry(src),
	}

	out, err := Harvest(ctx, deps, 10)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, out)
	assert.Equal(t, 1, out.Save.Inserted)
}
