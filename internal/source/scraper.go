package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/srikandi-id/harvester/internal/fetcher"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/parser"
	"github.com/srikandi-id/harvester/internal/pipeline"
	"github.com/srikandi-id/harvester/internal/types"
)

var errDropped = errors.New("dropped by pipeline")

// Site describes one news site's search page. All markup assumptions for
// a site live in its Site value; the Scraper holds none.
type Site struct {
	Name types.SourceName

	// BaseURL is the scheme and host search requests go to and relative
	// links resolve against.
	BaseURL string

	// SearchPath is appended to BaseURL. It holds one %s verb that
	// receives the query-escaped keyword.
	SearchPath string

	// Timeout is the site's default request timeout.
	Timeout time.Duration

	// Containers are tried in order; the first selector that matches
	// anything defines the result elements.
	Containers []string

	// Field extractor chains, tried in order per element.
	Title   []parser.Extractor
	Link    []parser.Extractor
	Date    []parser.Extractor
	Summary []parser.Extractor
	Image   []parser.Extractor
}

// SearchURL returns the search page URL for keyword.
func (s Site) SearchURL(keyword string) string {
	return strings.TrimRight(s.BaseURL, "/") + fmt.Sprintf(s.SearchPath, url.QueryEscape(keyword))
}

// Scraper is the Adapter for HTML search pages.
type Scraper struct {
	site     Site
	base     *url.URL
	timeout  time.Duration
	fetcher  fetcher.Fetcher
	pipeline *pipeline.Pipeline
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL points the scraper at another host, e.g. a mirror or a test server.
func WithBaseURL(raw string) Option {
	return func(s *Scraper) { s.site.BaseURL = raw }
}

// WithTimeout overrides the site's default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPipeline replaces the default candidate pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Scraper) { s.pipeline = p }
}

// WithMetrics records request and candidate counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// NewScraper builds an adapter for site that retrieves pages with f.
func NewScraper(site Site, f fetcher.Fetcher, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		site:    site,
		timeout: site.Timeout,
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	base, err := url.Parse(s.site.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("source %s: invalid base URL %q", site.Name, s.site.BaseURL)
	}
	s.base = base
	s.logger = s.logger.With("component", "source", "source", string(site.Name))
	if s.pipeline == nil {
		s.pipeline = pipeline.Default(s.logger, nil)
	}
	return s, nil
}

// Name returns the site's source name.
func (s *Scraper) Name() types.SourceName { return s.site.Name }

// Fetch retrieves the search page for keyword and extracts at most limit
// result elements from it.
func (s *Scraper) Fetch(ctx context.Context, keyword string, limit int) []types.CandidateRecord {
	logger := s.logger.With("keyword", keyword)
	if limit <= 0 {
		return nil
	}

	doc, err := s.fetchDocument(ctx, keyword)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RequestsFailed.Add(1)
		}
		logger.Error("search page unavailable", "error", err)
		return nil
	}

	elements, matched := parser.FindContainers(doc, s.site.Containers...)
	if matched == "" {
		logger.Warn("no results parsed",
			"error", &types.ParseError{Source: s.site.Name, Selector: strings.Join(s.site.Containers, ", "), Err: types.ErrNoContainer})
		return nil
	}

	var (
		out     []types.CandidateRecord
		dropped int
	)
	elements.EachWithBreak(func(i int, el *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		c, err := s.extract(el)
		if err != nil {
			dropped++
			logger.Debug("result element skipped", "index", i, "selector", matched, "error", err)
			return true
		}
		out = append(out, *c)
		return true
	})

	if s.metrics != nil {
		s.metrics.CandidatesTotal.Add(int64(len(out)))
		s.metrics.CandidatesDropped.Add(int64(dropped))
	}
	logger.Debug("search page parsed", "selector", matched, "elements", elements.Length(), "candidates", len(out), "skipped", dropped)
	return out
}

func (s *Scraper) fetchDocument(ctx context.Context, keyword string) (*goquery.Document, error) {
	req, err := types.NewRequest(s.site.SearchURL(keyword), s.site.Name)
	if err != nil {
		return nil, err
	}
	req.Timeout = s.timeout
	if len(s.site.Containers) > 0 {
		req.WaitSelector = s.site.Containers[0]
	}

	if s.metrics != nil {
		s.metrics.RequestsTotal.Add(1)
	}
	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: resp.StatusCode, Err: err}
	}
	return doc, nil
}

// extract builds a candidate from one result element. A panic inside a
// selector chain only costs this element.
func (s *Scraper) extract(el *goquery.Selection) (c *types.CandidateRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("extract panic: %v", r)
		}
	}()

	title := parser.First(el, s.site.Title...)
	if title == "" {
		return nil, types.ErrMissingTitle
	}
	link, err := parser.ResolveLink(s.base, parser.First(el, s.site.Link...))
	if err != nil {
		return nil, err
	}

	image := parser.First(el, s.site.Image...)
	if image != "" {
		if abs, err := parser.ResolveLink(s.base, image); err == nil {
			image = abs
		} else {
			image = ""
		}
	}

	cand := &types.CandidateRecord{
		Title:       title,
		Link:        link,
		PublishedAt: parser.First(el, s.site.Date...),
		Summary:     parser.First(el, s.site.Summary...),
		ImageURL:    image,
		Source:      s.site.Name,
	}
	out, err := s.pipeline.Process(cand)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errDropped
	}
	return out, nil
}
