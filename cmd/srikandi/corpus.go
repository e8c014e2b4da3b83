package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/srikandi-id/harvester/internal/analytics"
	"github.com/srikandi-id/harvester/internal/api"
	"github.com/srikandi-id/harvester/internal/observability"
	"github.com/srikandi-id/harvester/internal/storage"
)

// reingestCmd creates the "reingest" subcommand, which retries a spill file.
func reingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reingest <spill-file>",
		Short: "Retry saving a batch spilled by a failed write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()

			records, err := storage.ReadSpill(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			metrics := observability.NewMetrics(logger)
			gateway := storage.NewGateway(store, storage.NewSpiller(cfg.Fallback.Dir, logger), cfg.Store.WriteTimeout, metrics, logger)
			res := gateway.Save(ctx, records)

			fmt.Fprintf(cmd.ErrOrStderr(), "Reingested %s: %d inserted, %d already stored\n", args[0], res.Inserted, res.Conflicts)
			if res.Err != nil {
				if res.Spilled > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%d records spilled again to %s\n", res.Spilled, res.SpillPath)
				}
				return fmt.Errorf("reingest incomplete: %w", res.Err)
			}
			return nil
		},
	}
}

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	var (
		src    string
		top    int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize stored articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext(logger)
			defer cancel()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			records, err := store.Find(ctx, storage.Query{Source: src})
			if err != nil {
				return err
			}
			report := analytics.Build(records, analytics.Options{TopWords: top})

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "Articles: %d (%d without a usable date)\n", report.Total, report.Undated)
			if report.FirstDay != "" {
				fmt.Fprintf(out, "Period:   %s to %s\n", report.FirstDay, report.LastDay)
			}
			printCounts(out, "Per source", report.PerSource)
			printCounts(out, "Per keyword", report.Keywords)
			printCounts(out, "Content length", report.Lengths)
			printCounts(out, "Per day", report.PerDay)
			fmt.Fprintf(out, "\nTop words:\n")
			for _, w := range report.TopWords {
				fmt.Fprintf(out, "  %-24s %d\n", w.Word, w.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "source", "", "only articles from this source")
	cmd.Flags().IntVar(&top, "top", 20, "number of top words to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func printCounts(out io.Writer, title string, counts []analytics.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(out, "  %-24s %d\n", c.Label, c.Count)
	}
}

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	var (
		format string
		src    string
		output string
		limit  int64
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored articles as JSON, JSON lines or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !slices.Contains(storage.ExportFormats, format) {
				return fmt.Errorf("unsupported export format %q", format)
			}

			cfg, logger, closer, err := loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext(logger)
			defer cancel()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			records, err := store.Find(ctx, storage.Query{Source: src, Limit: limit})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := storage.Export(w, format, records); err != nil {
				return err
			}
			logger.Info("export complete", "records", len(records), "format", format, "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, jsonl, csv)")
	cmd.Flags().StringVar(&src, "source", "", "only articles from this source")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum number of articles (0 = all)")

	return cmd
}

// serveCmd creates the "serve" subcommand for the read-only dashboard API.
func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored articles and reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()
			if port > 0 {
				cfg.API.Port = port
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			return api.NewServer(cfg.API.Port, store, logger).Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}
