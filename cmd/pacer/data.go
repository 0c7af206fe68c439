package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/config"
	"github.com/verte-zerg/pacer/internal/export"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/progress"
	"github.com/verte-zerg/pacer/internal/stats"
)

var (
	statsWeeks int
	statsColor bool

	examClear bool

	exportOut string

	resetYes bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the progress report",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsWeeks, "weeks", stats.DefaultWeeks, "weeks shown in the activity heatmap")
	cmd.Flags().BoolVar(&statsColor, "color", false, "color the heatmap (default: when stdout is a terminal)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	st, fileCfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	applyIntConfig(cmd, "weeks", &statsWeeks, fileCfg.Stats.Weeks)
	if statsWeeks <= 0 {
		return fmt.Errorf("--weeks must be > 0")
	}
	useColor := stats.ColorEnabled(os.Stdout)
	if fileCfg.Stats.Color != nil {
		useColor = *fileCfg.Stats.Color
	}
	if cmd.Flags().Changed("color") {
		useColor = statsColor
	}
	if maxWeeks := (stats.TerminalWidth() - 4) / 2; maxWeeks > 0 && statsWeeks > maxWeeks && !cmd.Flags().Changed("weeks") {
		statsWeeks = maxWeeks
	}

	report, err := stats.BuildReport(context.Background(), st, stats.Options{
		Now:        nowFunc(),
		Weeks:      statsWeeks,
		Sequential: rootSequential,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	if len(report.Subjects) == 0 {
		logErrln("No subjects yet. Add one with: pacer subjects add <name> <chapters>")
		return nil
	}
	if err := stats.RenderSubjectTable(out, report); err != nil {
		return err
	}
	if err := stats.RenderPlan(out, report); err != nil {
		return err
	}
	if err := stats.RenderHeatmap(out, report.Days, useColor); err != nil {
		return err
	}
	return stats.RenderActivity(out, report.Days, 7)
}

func newExamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam [YYYY-MM-DD]",
		Short: "Show or set the exam date",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExamCmd,
	}
	cmd.Flags().BoolVar(&examClear, "clear", false, "remove the exam date")
	return cmd
}

func runExamCmd(cmd *cobra.Command, args []string) error {
	if examClear && len(args) > 0 {
		return fmt.Errorf("pass either a date or --clear, not both")
	}
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	out := cmd.OutOrStdout()
	switch {
	case examClear:
		if err := st.SetExamDate(ctx, nil); err != nil {
			return fmt.Errorf("failed to clear exam date: %w", err)
		}
		return writeLine(out, "Exam date cleared; pacing over a %d-day horizon", progress.DefaultHorizonDays)
	case len(args) == 1:
		exam, err := calendar.ParseKey(strings.TrimSpace(args[0]))
		if err != nil {
			return fmt.Errorf("invalid exam date: %w", err)
		}
		if err := st.SetExamDate(ctx, &exam); err != nil {
			return fmt.Errorf("failed to set exam date: %w", err)
		}
		days := calendar.DaysBetween(nowFunc(), exam)
		if days < 0 {
			logErrf("warning: %s is in the past; the whole remainder will be suggested for today\n", calendar.DateKey(exam))
		}
		return writeLine(out, "Exam date set to %s (%s)", calendar.DateKey(exam), describeExamDistance(days))
	default:
		exam, err := st.GetExamDate(ctx)
		if err != nil {
			return fmt.Errorf("failed to load exam date: %w", err)
		}
		if exam == nil {
			return writeLine(out, "No exam date set; pacing over a %d-day horizon", progress.DefaultHorizonDays)
		}
		return writeLine(out, "Exam date: %s (%s)", calendar.DateKey(*exam), describeExamDistance(calendar.DaysBetween(nowFunc(), *exam)))
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file, or - for stdout (default: XDG data dir)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	snap, err := st.Snapshot(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if exportOut == "-" {
		return export.Encode(cmd.OutOrStdout(), snap)
	}
	path := resolveExportPath(exportOut, nowFunc())
	if err := writeFileAtomic(path, func(w io.Writer) error {
		return export.Encode(w, snap)
	}); err != nil {
		return err
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func resolveExportPath(out string, now time.Time) string {
	out = expandHome(strings.TrimSpace(out))
	if out == "" {
		return filepath.Join(config.DefaultExportDir(), export.DefaultFileName(now))
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, export.DefaultFileName(now))
	}
	return out
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	snap, err := readBackup(expandHome(args[0]))
	if err != nil {
		return err
	}

	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.Restore(context.Background(), snap); err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}
	entries := 0
	for _, day := range snap.Logs {
		entries += len(day)
	}
	return writeLine(cmd.OutOrStdout(), "Imported %d subjects, %d log entries, %d coins", len(snap.Subjects), entries, snap.TotalCoins)
}

func readBackup(path string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	snap, err := export.Decode(f)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all progress data",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("reset deletes all progress; run again with --yes (consider: pacer export)")
	}
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.Reset(context.Background()); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "All progress deleted. The exam date was kept.")
}

// describeExamDistance phrases a signed day count to the exam.
func describeExamDistance(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "1 day left"
	case days > 0:
		return fmt.Sprintf("%d days left", days)
	case days == -1:
		return "passed 1 day ago"
	default:
		return fmt.Sprintf("passed %d days ago", -days)
	}
}
