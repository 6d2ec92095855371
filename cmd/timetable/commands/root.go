// Package commands holds the cobra commands of the timetable binary.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "timetable",
	Short:         "timetable scrapes the school timetable site into a database and serves it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the command line and exits non-zero on error.
// SIGINT and SIGTERM cancel the command's context.
func ExecuteContext(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
