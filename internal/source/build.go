package source

import (
	"errors"
	"log/slog"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/fetcher"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/types"
)

// FromConfig builds the registry of enabled sources in configured order.
// HTML sites share pageFetcher; the NewsData adapter, when enabled, is
// appended last and always uses plain HTTP via apiFetcher.
func FromConfig(cfg *config.Config, pageFetcher, apiFetcher fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry()

	for _, sc := range cfg.EnabledSites() {
		build, ok := Sites[sc.Name]
		if !ok {
			return nil, &types.ConfigError{Field: "sources", Err: errors.Join(types.ErrUnknownSource, errors.New(sc.Name))}
		}
		s, err := NewScraper(build(), pageFetcher,
			WithTimeout(sc.Timeout),
			WithMetrics(metrics),
			WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		reg.Register(s)
	}

	if cfg.NewsData.Enabled {
		nd, err := NewNewsData(cfg.NewsData, apiFetcher, metrics, logger)
		if err != nil {
			return nil, err
		}
		reg.Register(nd)
	}
	return reg, nil
}
