package config

import (
	"fmt"
	"strings"

	"github.com/srikandi-id/harvester/internal/types"
)

var knownSites = map[string]bool{
	SiteDetik: true, SiteCNN: true, SiteKompas: true, SiteTribun: true, SiteSuara: true,
}

// Validate checks the configuration for invalid values.
// Every failure is a *types.ConfigError.
func Validate(cfg *Config) error {
	if cfg.Harvest.Target < 1 {
		return invalid("harvest.target", "must be >= 1, got %d", cfg.Harvest.Target)
	}
	if cfg.Harvest.PerSourceLimit < 1 {
		return invalid("harvest.per_source_limit", "must be >= 1, got %d", cfg.Harvest.PerSourceLimit)
	}
	if cfg.Harvest.SourceDelay < 0 || cfg.Harvest.KeywordDelay < 0 {
		return invalid("harvest.source_delay", "delays must be >= 0")
	}
	if len(cfg.Harvest.Keywords) == 0 {
		return invalid("harvest.keywords", "at least one keyword is required")
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return invalid("fetcher.type", "must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Timeout <= 0 {
		return invalid("fetcher.timeout", "must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return invalid("fetcher.max_body_size", "must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return invalid("fetcher.max_redirects", "must be >= 0")
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if !knownSites[s.Name] {
			return invalid("sources", "unknown source %q", s.Name)
		}
		if seen[s.Name] {
			return invalid("sources", "source %q listed twice", s.Name)
		}
		seen[s.Name] = true
		if s.Timeout < 0 {
			return invalid("sources", "source %q timeout must be >= 0", s.Name)
		}
	}
	if cfg.NewsData.Enabled && strings.TrimSpace(cfg.NewsData.APIKey) == "" {
		return &types.ConfigError{Field: "newsdata.api_key", Err: types.ErrMissingCredential}
	}
	if len(cfg.EnabledSites()) == 0 && !cfg.NewsData.Enabled {
		return invalid("sources", "no source is enabled")
	}

	if err := ValidateStore(&cfg.Store); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return invalid("logging.level", "must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return invalid("logging.format", "must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return invalid("metrics.port", "must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return invalid("api.port", "must be 1-65535, got %d", cfg.API.Port)
	}

	return nil
}

// ValidateStore checks only the store section. Commands that read the
// corpus without harvesting use it directly.
func ValidateStore(s *StoreConfig) error {
	uri := strings.TrimSpace(s.URI)
	if uri == "" {
		return &types.ConfigError{Field: "store.uri", Err: types.ErrMissingCredential}
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return invalid("store.uri", "must start with mongodb:// or mongodb+srv://")
	}
	if s.Database == "" || s.Collection == "" {
		return invalid("store.database", "database and collection are required")
	}
	if s.ConnectTimeout <= 0 || s.WriteTimeout <= 0 {
		return invalid("store.connect_timeout", "timeouts must be > 0")
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return &types.ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}
