package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srikandi-id/harvester/internal/config"
	"github.com/srikandi-id/harvester/internal/source"
)

// sourcesCmd creates the "sources" subcommand listing configured sources.
func sourcesCmd() *cobra.Command {
	var keyword string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List sources in query order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sc := range cfg.Sources {
				build, ok := source.Sites[sc.Name]
				if !ok {
					fmt.Fprintf(out, "  %-10s unknown source\n", sc.Name)
					continue
				}
				site := build()
				timeout := site.Timeout
				if sc.Timeout > 0 {
					timeout = sc.Timeout
				}
				fmt.Fprintf(out, "  %-10s enabled=%-5v timeout=%-6s %s\n", sc.Name, sc.Enabled, timeout, site.SearchURL(keyword))
			}
			fmt.Fprintf(out, "  %-10s enabled=%-5v timeout=%-6s %s\n", config.SiteNewsData, cfg.NewsData.Enabled, cfg.NewsData.Timeout, cfg.NewsData.Endpoint)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "kdrt", "keyword used in the example search URLs")

	return cmd
}
