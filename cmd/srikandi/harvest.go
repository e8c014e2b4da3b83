package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/fetcher"
	"github.com/srikandi-id/harvester/internal/harvest"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/source"
	"github.com/srikandi-id/harvester/internal/storage"
)

var (
	target      int
	keywordList string
	sourceList  string
	parallel    bool
	matchAll    bool
	dryRun      bool
)

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Collect new articles and save them",
		Long: `Query every enabled source for every keyword, keep relevant articles whose
link is not stored yet, and save them in one bulk write. Stops early once
the target number of new articles is reached.`,
		Args: cobra.NoArgs,
		RunE: runHarvest,
	}

	cmd.Flags().IntVarP(&target, "target", "t", 0, "number of new articles to collect (default from config)")
	cmd.Flags().StringVarP(&keywordList, "keywords", "k", "", "comma-separated keywords, replacing the configured list")
	cmd.Flags().StringVarP(&sourceList, "sources", "s", "", "comma-separated source names to query, in order (e.g. detik,kompas)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "query all sources for a keyword concurrently")
	cmd.Flags().BoolVar(&matchAll, "match-all", false, "also record every other configured keyword an accepted article contains")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not touch the store; print accepted articles as JSON lines")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	applyHarvestOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	var store storage.Store
	if dryRun {
		store = storage.NewMemoryStore()
	} else {
		mongo, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore(mongo, logger)
		store = mongo
	}

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	pageFetcher, err := fetcher.New(&cfg.Fetcher, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer pageFetcher.Close()

	var apiFetcher fetcher.Fetcher = pageFetcher
	if cfg.NewsData.Enabled && pageFetcher.Type() != "http" {
		httpCfg := cfg.Fetcher
		httpCfg.Type = "http"
		hf, err := fetcher.NewHTTPFetcher(&httpCfg, logger)
		if err != nil {
			return fmt.Errorf("create API fetcher: %w", err)
		}
		defer hf.Close()
		apiFetcher = hf
	}

	sources, err := source.FromConfig(cfg, pageFetcher, apiFetcher, metrics, logger)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}

	h := harvest.New(store, harvest.Options{
		PerSourceLimit:   cfg.Harvest.PerSourceLimit,
		SourceDelay:      cfg.Harvest.SourceDelay,
		KeywordDelay:     cfg.Harvest.KeywordDelay,
		ParallelSources:  cfg.Harvest.ParallelSources,
		MatchAllKeywords: cfg.Harvest.MatchAllKeywords,
	}, logger, harvest.WithMetrics(metrics))

	gateway := storage.NewGateway(store, storage.NewSpiller(cfg.Fallback.Dir, logger), cfg.Store.WriteTimeout, metrics, logger)

	start := time.Now()
	out, err := harvest.Harvest(ctx, harvest.Deps{
		Harvester: h,
		Gateway:   gateway,
		Keywords:  cfg.Harvest.Keywords,
		Sources:   sources,
	}, cfg.Harvest.Target)
	if out == nil {
		return err
	}
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	if dryRun {
		if err := storage.Export(os.Stdout, "jsonl", out.Result.Records); err != nil {
			return err
		}
	}
	printSummary(cmd, out, time.Since(start), interrupted, dryRun)

	if out.Save.Err != nil && out.Save.Spilled == 0 {
		return fmt.Errorf("articles could not be saved: %w", out.Save.Err)
	}
	return nil
}

// applyHarvestOverrides applies command-line flag values to the config.
func applyHarvestOverrides(cfg *config.Config) {
	if target > 0 {
		cfg.Harvest.Target = target
	}
	if keywordList != "" {
		cfg.Harvest.Keywords = splitList(keywordList)
	}
	if sourceList != "" {
		cfg.Sources, cfg.NewsData.Enabled = selectSources(cfg, splitList(sourceList))
	}
	if parallel {
		cfg.Harvest.ParallelSources = true
	}
	if matchAll {
		cfg.Harvest.MatchAllKeywords = true
	}
}

// selectSources enables exactly the named sources, in the given order.
// Unknown names are kept so Validate reports them.
func selectSources(cfg *config.Config, names []string) ([]config.SiteConfig, bool) {
	byName := make(map[string]config.SiteConfig, len(cfg.Sources))
	for _, s := range cfg.Sources {
		byName[s.Name] = s
	}
	var (
		sites    []config.SiteConfig
		newsdata bool
	)
	for _, n := range names {
		if n == config.SiteNewsData {
			newsdata = true
			continue
		}
		s, ok := byName[n]
		if !ok {
			s = config.SiteConfig{Name: n}
		}
		s.Enabled = true
		sites = append(sites, s)
	}
	return sites, newsdata
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printSummary(cmd *cobra.Command, out *harvest.Outcome, elapsed time.Duration, interrupted, dryRun bool) {
	w := cmd.ErrOrStderr()
	stats := out.Result.Stats

	status := "complete"
	if interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(w, "\nHarvest %s in %s (run %s)\n", status, elapsed.Round(time.Millisecond), out.Result.RunID)
	fmt.Fprintf(w, "   Calls:      %d adapter calls, %d candidates\n", stats.AdapterCalls, stats.Candidates)
	fmt.Fprintf(w, "   Accepted:   %d (quota reached: %v)\n", len(out.Result.Records), out.Result.QuotaReached)
	fmt.Fprintf(w, "   Rejected:   %d seen, %d irrelevant, %d invalid\n", stats.Duplicates, stats.Irrelevant, stats.Invalid)
	bySource := stats.AcceptedBySource()
	for _, src := range slices.Sorted(maps.Keys(bySource)) {
		fmt.Fprintf(w, "     %-16s %d\n", src, bySource[src])
	}
	if dryRun {
		fmt.Fprintf(w, "   Store:      dry run, nothing written\n")
		return
	}
	fmt.Fprintf(w, "   Store:      %d inserted, %d already stored\n", out.Save.Inserted, out.Save.Conflicts)
	if out.Save.Spilled > 0 {
		fmt.Fprintf(w, "   Spilled:    %d records to %s\n", out.Save.Spilled, out.Save.SpillPath)
		fmt.Fprintf(w, "               recover with: srikandi reingest %s\n", out.Save.SpillPath)
	}
}
