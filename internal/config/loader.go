package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flag overrides are applied by the caller after Load.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SRIKANDI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for deployments that predate the prefix.
	_ = v.BindEnv("store.uri", "SRIKANDI_STORE_URI", "MONGO_URI")
	_ = v.BindEnv("newsdata.api_key", "SRIKANDI_NEWSDATA_API_KEY", "NEWSDATA_API_KEY", "API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("srikandi")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".srikandi"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Lists from the file replace the defaults instead of merging element-wise.
	cfg.Harvest.Keywords = nil
	if v.InConfig("sources") {
		cfg.Sources = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Harvest.Keywords = normalizeKeywords(cfg.Harvest.Keywords)
	return cfg, nil
}

// setDefaults registers default values in viper so env overrides are visible.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("harvest.target", cfg.Harvest.Target)
	v.SetDefault("harvest.per_source_limit", cfg.Harvest.PerSourceLimit)
	v.SetDefault("harvest.source_delay", cfg.Harvest.SourceDelay)
	v.SetDefault("harvest.keyword_delay", cfg.Harvest.KeywordDelay)
	v.SetDefault("harvest.parallel_sources", cfg.Harvest.ParallelSources)
	v.SetDefault("harvest.match_all_keywords", cfg.Harvest.MatchAllKeywords)
	v.SetDefault("harvest.keywords", cfg.Harvest.Keywords)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("newsdata.enabled", cfg.NewsData.Enabled)
	v.SetDefault("newsdata.api_key", cfg.NewsData.APIKey)
	v.SetDefault("newsdata.endpoint", cfg.NewsData.Endpoint)
	v.SetDefault("newsdata.language", cfg.NewsData.Language)
	v.SetDefault("newsdata.timeout", cfg.NewsData.Timeout)

	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.collection", cfg.Store.Collection)
	v.SetDefault("store.connect_timeout", cfg.Store.ConnectTimeout)
	v.SetDefault("store.write_timeout", cfg.Store.WriteTimeout)

	v.SetDefault("fallback.dir", cfg.Fallback.Dir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	v.SetDefault("api.port", cfg.API.Port)
}

// normalizeKeywords trims keywords and drops blanks and exact repeats,
// preserving order.
func normalizeKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
