package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garyellow/school-timetable-go/internal/config"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/timetable"
)

var (
	parseFile  *string
	parseClass *string
)

func init() {
	parseFile = parseCmd.Flags().String("file", "", "Saved class page to parse.")
	parseClass = parseCmd.Flags().String("class", "", "Class name for the output (default: file name).")
	_ = parseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse --file <page.html> [--class NAME]",
	Short: "Parses one saved class page offline and prints its lessons.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadForMode(config.ToolMode)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		opts, err := cfg.ParserOptions()
		if err != nil {
			return err
		}
		periods, err := cfg.PeriodSchedule()
		if err != nil {
			return err
		}

		f, err := os.Open(*parseFile)
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := htmldoc.Parse(f, nil)
		if err != nil {
			return fmt.Errorf("parse %s: %w", *parseFile, err)
		}

		class := *parseClass
		if class == "" {
			class = strings.TrimSuffix(filepath.Base(*parseFile), filepath.Ext(*parseFile))
		}

		result := timetable.NewParser(opts).ParseTable(class, doc.Root())
		if result.Rows == 0 {
			return errors.New("no timetable rows found")
		}
		lessons := result.Lessons
		if opts.EndTimePolicy == timetable.EndTimeDeferred && periods != nil {
			lessons = periods.Fill(lessons)
		}

		out := cmd.OutOrStdout()
		printLessons(out, lessons)
		printRejections(out, result)
		return nil
	},
}

var dayNames = [timetable.DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri"}

func printLessons(out io.Writer, lessons []timetable.Lesson) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Day", "Start", "End", "Subject", "Teacher", "Room"})
	for _, l := range lessons {
		t.AppendRow(table.Row{dayLabel(l.Day), l.StartTime, l.EndTime, l.Subject, l.Teacher, l.Room})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Lessons", len(lessons)})
	t.Render()
}

func printRejections(out io.Writer, result timetable.TableResult) {
	if len(result.RowErrs) == 0 && len(result.SlotErrs) == 0 {
		return
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"Row", "Day", "Reason"})
	for _, e := range result.RowErrs {
		t.AppendRow(table.Row{e.Row, "", e.Error()})
	}
	for _, e := range result.SlotErrs {
		t.AppendRow(table.Row{e.Row, dayLabel(e.Day), e.Error()})
	}
	t.Render()
}

func dayLabel(day int) string {
	if day >= 0 && day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprint(day)
}
