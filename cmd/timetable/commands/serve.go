package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyellow/school-timetable-go/internal/app"
	"github.com/garyellow/school-timetable-go/internal/config"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the read API, seeding on startup and on an interval when configured.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadForMode(config.ServerMode)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		application, err := app.Initialize(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return application.Run()
	},
}
