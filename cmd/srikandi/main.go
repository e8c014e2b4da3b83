package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "srikandi",
		Short: "Srikandi: news harvester for reporting on violence against women",
		Long: `Srikandi queries Indonesian news sites for a list of keywords, keeps the
relevant articles it has not stored before, and saves them to MongoDB.

Sources: Detik.com, CNN Indonesia, Kompas.com, Tribunnews.com, Suara.com,
and optionally the NewsData.io API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(reingestCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the logger.
func loadConfig() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := observability.NewLogger(cfg.Logging, verbose)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closer, nil
}

// openStore validates the store section and connects. Failing here is a
// configuration fault: nothing else runs without a reachable store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.MongoStore, error) {
	if err := config.ValidateStore(&cfg.Store); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := storage.NewMongoStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func closeStore(store storage.Store, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Warn("store close failed", "error", err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down...", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("srikandi %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asYAML {
				redacted := *cfg
				redacted.Store.URI = redactURI(cfg.Store.URI)
				if redacted.NewsData.APIKey != "" {
					redacted.NewsData.APIKey = "***"
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(&redacted)
			}
			fmt.Fprintf(out, "Harvest:\n")
			fmt.Fprintf(out, "  Target:            %d\n", cfg.Harvest.Target)
			fmt.Fprintf(out, "  Per Source Limit:  %d\n", cfg.Harvest.PerSourceLimit)
			fmt.Fprintf(out, "  Source Delay:      %s\n", cfg.Harvest.SourceDelay)
			fmt.Fprintf(out, "  Keyword Delay:     %s\n", cfg.Harvest.KeywordDelay)
			fmt.Fprintf(out, "  Parallel Sources:  %v\n", cfg.Harvest.ParallelSources)
			fmt.Fprintf(out, "  Match All:         %v\n", cfg.Harvest.MatchAllKeywords)
			fmt.Fprintf(out, "  Keywords:          %d configured\n", len(cfg.Harvest.Keywords))
			fmt.Fprintf(out, "\nFetcher:\n")
			fmt.Fprintf(out, "  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Fprintf(out, "  Timeout:           %s\n", cfg.Fetcher.Timeout)
			fmt.Fprintf(out, "  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Fprintf(out, "  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Fprintf(out, "\nSources:\n")
			for _, s := range cfg.Sources {
				fmt.Fprintf(out, "  %-18s enabled=%v timeout=%s\n", s.Name, s.Enabled, s.Timeout)
			}
			fmt.Fprintf(out, "  %-18s enabled=%v key_set=%v\n", config.SiteNewsData, cfg.NewsData.Enabled, cfg.NewsData.APIKey != "")
			fmt.Fprintf(out, "\nStore:\n")
			fmt.Fprintf(out, "  Database:          %s\n", cfg.Store.Database)
			fmt.Fprintf(out, "  Collection:        %s\n", cfg.Store.Collection)
			fmt.Fprintf(out, "  Fallback Dir:      %s\n", cfg.Fallback.Dir)
			fmt.Fprintf(out, "\nMetrics:\n")
			fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Fprintf(out, "  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the effective config as YAML, with credentials redacted")

	return cmd
}

// redactURI hides the password in a connection string.
func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
