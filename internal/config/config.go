package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Source identifiers used in configuration.
const (
	SiteDetik    = "detik"
	SiteCNN      = "cnn"
	SiteKompas   = "kompas"
	SiteTribun   = "tribun"
	SiteSuara    = "suara"
	SiteNewsData = "newsdata"
)

// Config is the root configuration for the harvester.
type Config struct {
	Harvest  HarvestConfig  `mapstructure:"harvest"  yaml:"harvest"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Sources  []SiteConfig   `mapstructure:"sources"  yaml:"sources"`
	NewsData NewsDataConfig `mapstructure:"newsdata" yaml:"newsdata"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Fallback FallbackConfig `mapstructure:"fallback" yaml:"fallback"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
}

// HarvestConfig controls the keyword × source loop.
type HarvestConfig struct {
	Target           int           `mapstructure:"target"             yaml:"target"`
	PerSourceLimit   int           `mapstructure:"per_source_limit"   yaml:"per_source_limit"`
	SourceDelay      time.Duration `mapstructure:"source_delay"       yaml:"source_delay"`
	KeywordDelay     time.Duration `mapstructure:"keyword_delay"      yaml:"keyword_delay"`
	ParallelSources  bool          `mapstructure:"parallel_sources"   yaml:"parallel_sources"`
	MatchAllKeywords bool          `mapstructure:"match_all_keywords" yaml:"match_all_keywords"`
	Keywords         []string      `mapstructure:"keywords"           yaml:"keywords"`
}

// FetcherConfig controls how search pages are retrieved.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// SiteConfig enables an HTML source and sets its request timeout.
// The order of Sources is the order sites are queried.
type SiteConfig struct {
	Name    string        `mapstructure:"name"    yaml:"name"`
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewsDataConfig configures the structured news API source.
type NewsDataConfig struct {
	Enabled  bool          `mapstructure:"enabled"  yaml:"enabled"`
	APIKey   string        `mapstructure:"api_key"  yaml:"api_key"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Language string        `mapstructure:"language" yaml:"language"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// StoreConfig points at the MongoDB collection holding articles.
type StoreConfig struct {
	URI            string        `mapstructure:"uri"             yaml:"uri"`
	Database       string        `mapstructure:"database"        yaml:"database"`
	Collection     string        `mapstructure:"collection"      yaml:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"   yaml:"write_timeout"`
}

// FallbackConfig controls where failed batches are spilled.
type FallbackConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// APIConfig controls the read-only dashboard API.
type APIConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultKeywords are the topical search terms, queried in this order.
var DefaultKeywords = []string{
	"kekerasan perempuan",
	"kdrt",
	"pemerkosaan",
	"pelecehan seksual",
	"pelecehan",
	"eksploitasi perempuan",
	"tindak kekerasan",
	"korban perempuan",
	"kasus perempuan",
	"perkosaan",
	"kekerasan seksual",
	"perempuan jadi korban",
	"femicide",
	"perdagangan manusia",
	"trafficking",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Harvest: HarvestConfig{
			Target:         150,
			PerSourceLimit: 30,
			SourceDelay:    3 * time.Second,
			KeywordDelay:   5 * time.Second,
			Keywords:       append([]string(nil), DefaultKeywords...),
		},
		Fetcher: FetcherConfig{
			Type:    "http",
			Timeout: 45 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
		},
		Sources: []SiteConfig{
			{Name: SiteDetik, Enabled: true, Timeout: 45 * time.Second},
			{Name: SiteCNN, Enabled: true, Timeout: 45 * time.Second},
			{Name: SiteKompas, Enabled: true, Timeout: 45 * time.Second},
			{Name: SiteTribun, Enabled: true, Timeout: 60 * time.Second},
			{Name: SiteSuara, Enabled: true, Timeout: 45 * time.Second},
		},
		NewsData: NewsDataConfig{
			Enabled:  false,
			Endpoint: "https://newsdata.io/api/1/news",
			Language: "id",
			Timeout:  30 * time.Second,
		},
		Store: StoreConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "sr",
			Collection:     "woman_abuse",
			ConnectTimeout: 5 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Fallback: FallbackConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// EnabledSites returns the enabled HTML sources in query order.
func (c *Config) EnabledSites() []SiteConfig {
	var sites []SiteConfig
	for _, s := range c.Sources {
		if s.Enabled {
			sites = append(sites, s)
		}
	}
	return sites
}
