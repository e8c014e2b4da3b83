package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/fetcher"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/pipeline"
	"github.com/srikandi-id/harvester/internal/types"
)

// newsDataResponse is the subset of the NewsData.io /news payload we read.
type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		PubDate     string `json:"pubDate"`
		ImageURL    string `json:"image_url"`
	} `json:"results"`
}

// NewsData is the Adapter for the NewsData.io search API.
type NewsData struct {
	cfg      config.NewsDataConfig
	fetcher  fetcher.Fetcher
	pipeline *pipeline.Pipeline
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewNewsData builds the API adapter. It requires an API key.
func NewNewsData(cfg config.NewsDataConfig, f fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) (*NewsData, error) {
	if cfg.APIKey == "" {
		return nil, &types.ConfigError{Field: "newsdata.api_key", Err: types.ErrMissingCredential}
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, &types.ConfigError{Field: "newsdata.endpoint", Err: err}
	}
	logger = logger.With("component", "source", "source", string(types.SourceNewsData))
	return &NewsData{
		cfg:      cfg,
		fetcher:  f,
		pipeline: pipeline.ForMarkup(logger, nil),
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Name returns the source name.
func (n *NewsData) Name() types.SourceName { return types.SourceNewsData }

// Fetch queries the API for keyword and returns at most limit candidates.
func (n *NewsData) Fetch(ctx context.Context, keyword string, limit int) []types.CandidateRecord {
	logger := n.logger.With("keyword", keyword)
	if limit <= 0 {
		return nil
	}

	req, err := types.NewRequest(n.searchURL(keyword), types.SourceNewsData)
	if err != nil {
		logger.Warn("bad request URL", "error", err)
		return nil
	}
	req.Timeout = n.cfg.Timeout
	req.Headers.Set("Accept", "application/json")

	if n.metrics != nil {
		n.metrics.RequestsTotal.Add(1)
	}
	resp, err := n.fetcher.Fetch(ctx, req)
	if err != nil {
		if n.metrics != nil {
			n.metrics.RequestsFailed.Add(1)
		}
		// The request URL carries the key; log the source name only.
		logger.Warn("api request failed", "status", statusOf(err))
		return nil
	}

	var payload newsDataResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		logger.Warn("api response is not JSON", "error", err)
		return nil
	}
	if payload.Status != "" && payload.Status != "success" {
		logger.Warn("api returned an error status", "status", payload.Status)
		return nil
	}

	out := make([]types.CandidateRecord, 0, min(limit, len(payload.Results)))
	for i, r := range payload.Results {
		if i >= limit {
			break
		}
		c, err := n.pipeline.Process(&types.CandidateRecord{
			Title:       r.Title,
			Link:        r.Link,
			PublishedAt: r.PubDate,
			Summary:     r.Description,
			ImageURL:    r.ImageURL,
			Source:      types.SourceNewsData,
		})
		if err != nil || c == nil {
			logger.Debug("api result skipped", "index", i, "title", r.Title)
			continue
		}
		out = append(out, *c)
	}

	if n.metrics != nil {
		n.metrics.CandidatesTotal.Add(int64(len(out)))
	}
	return out
}

func (n *NewsData) searchURL(keyword string) string {
	q := url.Values{}
	q.Set("apikey", n.cfg.APIKey)
	q.Set("q", keyword)
	if n.cfg.Language != "" {
		q.Set("language", n.cfg.Language)
	}
	return fmt.Sprintf("%s?%s", n.cfg.Endpoint, q.Encode())
}

func statusOf(err error) int {
	var fe *types.FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
