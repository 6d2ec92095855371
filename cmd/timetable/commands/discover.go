package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/school-timetable-go/internal/app"
	"github.com/garyellow/school-timetable-go/internal/config"
	"github.com/garyellow/school-timetable-go/internal/seed"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

var (
	discoverIndex    *string
	discoverSelector *string
	discoverDedup    *bool
)

func init() {
	discoverIndex = discoverCmd.Flags().String("index", "", "Index page URL (default TIMETABLE_INDEX_URL).")
	discoverSelector = discoverCmd.Flags().String("selector", "", "CSS selector of class links (default TIMETABLE_CLASS_LINK_SELECTOR).")
	discoverDedup = discoverCmd.Flags().Bool("dedup", false, "Drop classes that share a URL.")
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover [--index URL] [--selector CSS]",
	Short: "Lists the class pages linked from the index page.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadForMode(config.ToolMode)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		indexURL := cfg.IndexURL
		if *discoverIndex != "" {
			indexURL = *discoverIndex
		}
		selector := cfg.ClassLinkSelector
		if *discoverSelector != "" {
			selector = *discoverSelector
		}

		sources, err := seed.Discover(cmd.Context(), app.NewScraper(cfg, nil), indexURL, selector)
		if err != nil {
			return err
		}
		if *discoverDedup {
			sources = timetable.DedupSources(sources)
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Class", "URL"})
		for i, src := range sources {
			t.AppendRow(table.Row{i + 1, src.Name, src.URL})
		}
		t.AppendFooter(table.Row{"", "Total", len(sources)})
		t.Render()
		return nil
	},
}
