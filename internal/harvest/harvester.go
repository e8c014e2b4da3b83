// Package harvest drives the keyword × source loop: it seeds link dedup
// from the store, asks each adapter for candidates, keeps the relevant
// unseen ones, and stops at the article quota.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/source"
	"github.com/srikandi-id/harvester/internal/storage"
	"github.com/srikandi-id/harvester/internal/types"
)

// DefaultTarget is the quota used when a caller passes none.
const DefaultTarget = 150

// LinkSource supplies the links already persisted.
type LinkSource interface {
	Links(ctx context.Context) ([]string, error)
}

// Options tunes a Harvester.
type Options struct {
	PerSourceLimit int
	SourceDelay    time.Duration
	KeywordDelay   time.Duration

	// ParallelSources queries every source for a keyword at once. Each
	// site still sees one request per keyword, and the quota is checked
	// before each keyword and each candidate.
	ParallelSources bool

	// MatchAllKeywords also records, on a candidate relevant to the active
	// keyword, every other configured keyword it contains.
	MatchAllKeywords bool
}

// Result is the outcome of one Run.
type Result struct {
	RunID   string
	Records []types.ArticleRecord
	Stats   *Stats

	// QuotaReached is set when the run stopped because it hit the target.
	QuotaReached bool
}

// Harvester runs harvests. One Harvester may run many times; each run
// owns its own state.
type Harvester struct {
	links   LinkSource
	filter  RelevanceFilter
	opts    Options
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithClock sets the time source for scraped_at stamps.
func WithClock(now func() time.Time) Option {
	return func(h *Harvester) { h.now = now }
}

// WithSleep replaces the pacing delay implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Harvester) { h.sleep = sleep }
}

// WithMetrics records decision counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Harvester) { h.metrics = m }
}

// New creates a Harvester seeding its dedup set from links.
func New(links LinkSource, opts Options, logger *slog.Logger, options ...Option) *Harvester {
	if opts.PerSourceLimit <= 0 {
		opts.PerSourceLimit = 30
	}
	h := &Harvester{
		links:  links,
		opts:   opts,
		now:    time.Now,
		sleep:  sleepCtx,
		logger: logger.With("component", "harvester"),
	}
	for _, o := range options {
		o(h)
	}
	return h
}

// run is the state owned by a single Run call.
type run struct {
	id       string
	keywords []string
	target   int
	dedup    *Deduplicator
	records  []types.ArticleRecord
	index    map[string]int
	stats    *Stats
	logger   *slog.Logger
}

func (r *run) quotaReached() bool { return len(r.records) >= r.target }

// Run iterates keywords, then sources in registry order, accepting at most
// target new records. It stops issuing adapter calls once the quota is met.
// A cancelled ctx ends the run early; the records accepted so far are
// returned together with ctx's error.
func (h *Harvester) Run(ctx context.Context, keywords []string, sources *source.Registry, target int) (*Result, error) {
	if target < 1 {
		return nil, fmt.Errorf("target must be >= 1, got %d", target)
	}
	if sources == nil || sources.Len() == 0 {
		return nil, errors.New("no sources registered")
	}

	id := uuid.NewString()
	r := &run{
		id:       id,
		keywords: keywords,
		target:   target,
		dedup:    NewDeduplicator(1024),
		index:    make(map[string]int),
		stats:    newStats(h.now()),
		logger:   h.logger.With("run_id", id),
	}
	h.seed(ctx, r)

	r.logger.Info("harvest started",
		"keywords", len(keywords),
		"sources", sources.Len(),
		"target", target,
		"parallel", h.opts.ParallelSources,
	)

	var err error
	if h.opts.ParallelSources {
		err = h.runParallel(ctx, r, sources)
	} else {
		err = h.runSequential(ctx, r, sources)
	}

	r.stats.EndTime = h.now()
	res := &Result{
		RunID:        id,
		Records:      r.records,
		Stats:        r.stats,
		QuotaReached: r.quotaReached(),
	}

	attrs := []any{"accepted", len(r.records), "target", target, "quota_reached", res.QuotaReached}
	if err != nil {
		r.logger.Warn("harvest interrupted", append(attrs, "error", err)...)
		return res, err
	}
	r.logger.Info("harvest finished", attrs...)
	return res, nil
}

// seed loads stored links. A store failure degrades to an empty seed.
func (h *Harvester) seed(ctx context.Context, r *run) {
	if h.links == nil {
		return
	}
	links, err := h.links.Links(ctx)
	if err != nil {
		r.logger.Warn("could not read stored links, deduplicating within this run only", "error", err)
		return
	}
	r.dedup.Seed(links)
	r.stats.Seeded = r.dedup.Count()
	r.logger.Info("seed set loaded", "links", r.stats.Seeded)
}

func (h *Harvester) runSequential(ctx context.Context, r *run, sources *source.Registry) error {
	adapters := sources.Adapters()
	for ki, kw := range r.keywords {
		if r.quotaReached() {
			return nil
		}
		if ki > 0 {
			if err := h.sleep(ctx, h.opts.KeywordDelay); err != nil {
				return err
			}
		}

		for si, a := range adapters {
			if r.quotaReached() {
				return nil
			}
			if si > 0 {
				if err := h.sleep(ctx, h.opts.SourceDelay); err != nil {
					return err
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			r.stats.add(&r.stats.AdapterCalls, 1)
			cands := a.Fetch(ctx, kw, h.opts.PerSourceLimit)
			h.process(r, kw, a.Name(), cands)
		}
	}
	return nil
}

// runParallel fetches all sources for a keyword concurrently and then
// processes their candidates in registry order, so acceptance is as
// deterministic as the sequential mode.
func (h *Harvester) runParallel(ctx context.Context, r *run, sources *source.Registry) error {
	adapters := sources.Adapters()
	for ki, kw := range r.keywords {
		if r.quotaReached() {
			return nil
		}
		if ki > 0 {
			if err := h.sleep(ctx, h.opts.KeywordDelay); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		results := make([][]types.CandidateRecord, len(adapters))
		g, gctx := errgroup.WithContext(ctx)
		for i, a := range adapters {
			g.Go(func() error {
				results[i] = a.Fetch(gctx, kw, h.opts.PerSourceLimit)
				return nil
			})
		}
		_ = g.Wait()
		r.stats.add(&r.stats.AdapterCalls, len(adapters))

		for i, a := range adapters {
			if r.quotaReached() {
				return nil
			}
			h.process(r, kw, a.Name(), results[i])
		}
	}
	return nil
}

// process applies dedup and relevance to one adapter's candidates.
func (h *Harvester) process(r *run, keyword string, src types.SourceName, cands []types.CandidateRecord) {
	logger := r.logger.With("keyword", keyword, "source", string(src))
	if len(cands) == 0 {
		logger.Info("no candidates")
		return
	}
	r.stats.add(&r.stats.Candidates, len(cands))

	var accepted, dup, irrelevant, invalid int
	for _, c := range cands {
		if r.quotaReached() {
			break
		}
		if c.Link == "" {
			invalid++
			continue
		}

		if i, ok := r.index[c.Link]; ok {
			dup++
			if h.filter.IsRelevant(c, keyword) && r.records[i].AddKeyword(keyword) {
				r.stats.add(&r.stats.Merged, 1)
				logger.Debug("keyword merged into accepted article", "link", c.Link)
			}
			continue
		}
		if r.dedup.Seen(c.Link) {
			dup++
			continue
		}
		if !c.HasMandatoryFields() {
			invalid++
			continue
		}

		if !h.filter.IsRelevant(c, keyword) {
			irrelevant++
			continue
		}

		rec := types.NewArticleRecord(c, keyword, h.now())
		if h.opts.MatchAllKeywords {
			for _, kw := range h.filter.Matches(c, r.keywords) {
				rec.AddKeyword(kw)
			}
		}

		r.index[c.Link] = len(r.records)
		r.records = append(r.records, rec)
		r.dedup.MarkSeen(c.Link)
		r.stats.accept(src, keyword)
		accepted++
	}

	r.stats.add(&r.stats.Duplicates, dup)
	r.stats.add(&r.stats.Irrelevant, irrelevant)
	r.stats.add(&r.stats.Invalid, invalid)
	if h.metrics != nil {
		h.metrics.ArticlesAccepted.Add(int64(accepted))
		h.metrics.ArticlesDuplicate.Add(int64(dup))
		h.metrics.ArticlesIrrelevant.Add(int64(irrelevant))
	}

	logger.Info("candidates processed",
		"candidates", len(cands),
		"accepted", accepted,
		"duplicates", dup,
		"irrelevant", irrelevant,
		"invalid", invalid,
		"total", len(r.records),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Deps are the collaborators Harvest wires together.
type Deps struct {
	Harvester *Harvester
	Gateway   *storage.Gateway
	Keywords  []string
	Sources   *source.Registry
}

// Outcome is what Harvest did end to end.
type Outcome struct {
	Result *Result
	Save   storage.SaveResult
}

// Harvest runs one harvest and persists what it accepted in a single bulk
// write. A target below 1 means DefaultTarget. When ctx is cancelled
// mid-run, the records accepted so far are still saved.
func Harvest(ctx context.Context, deps Deps, target int) (*Outcome, error) {
	if target < 1 {
		target = DefaultTarget
	}
	res, runErr := deps.Harvester.Run(ctx, deps.Keywords, deps.Sources, target)
	if res == nil {
		return nil, runErr
	}

	out := &Outcome{Result: res}
	out.Save = deps.Gateway.Save(context.WithoutCancel(ctx), res.Records)
	return out, runErr
}
