// Package main provides the CLI entrypoint for pacer.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/config"
	"github.com/verte-zerg/pacer/internal/dashboard"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/stats"
	"github.com/verte-zerg/pacer/internal/store"
)

var (
	rootDBPath     string
	rootSequential bool
	rootWeeks      int

	// nowFunc is replaced in tests.
	nowFunc = time.Now
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pacer",
		Short:         "Study progress tracker and exam pacer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runDashboardCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.PersistentFlags().BoolVar(&rootSequential, "sequential", true, "suggest chapters after the latest completed one instead of filling gaps")
	rootCmd.Flags().IntVar(&rootWeeks, "weeks", stats.DefaultWeeks, "weeks of activity to load")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSubjectsCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newUnlogCmd())
	rootCmd.AddCommand(newTodayCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExamCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	st, fileCfg, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	applyIntConfig(cmd, "weeks", &rootWeeks, fileCfg.Stats.Weeks)
	if rootWeeks <= 0 {
		return fmt.Errorf("--weeks must be > 0")
	}

	m := dashboard.NewModel(st, stats.Options{Weeks: rootWeeks, Sequential: rootSequential})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// openStore loads the config file, resolves shared flags against it and opens the database.
func openStore(cmd *cobra.Command) (*store.Store, config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if !cmd.Flags().Changed("db") {
		rootDBPath = fileCfg.DBPath()
	}
	applyBoolConfig(cmd, "sequential", &rootSequential, fileCfg.Plan.Sequential)

	st, err := store.Open(rootDBPath)
	if err != nil {
		return nil, config.FileConfig{}, fmt.Errorf("failed to open db: %w", err)
	}
	return st, fileCfg, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pacer configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# db = %q

[plan]
# sequential = true      # Suggest chapters after the latest completed one

[stats]
# weeks = %d             # Weeks shown in the activity heatmap
# color = true           # Force colored heatmap output

[curriculum]
# file = "~/curriculum.txt"  # One "Name, chapters" per line, used by: pacer subjects load
`,
		config.DefaultDBPath(),
		stats.DefaultWeeks,
	)
}

// parseDay turns an optional YYYY-MM-DD flag value into a date key, defaulting to today.
func parseDay(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return calendar.DateKey(now), nil
	}
	day, err := calendar.ParseKey(value)
	if err != nil {
		return "", err
	}
	return calendar.DateKey(day), nil
}

// findSubject looks ref up as a stored id first, then by name.
func findSubject(ctx context.Context, st *store.Store, ref string) (model.Subject, error) {
	ref = strings.TrimSpace(ref)
	if ref != "" {
		subj, err := st.GetSubject(ctx, ref)
		if err == nil {
			return subj, nil
		}
		if !errors.Is(err, store.ErrSubjectNotFound) {
			return model.Subject{}, fmt.Errorf("failed to load subject: %w", err)
		}
	}
	subjects, err := st.ListSubjects(ctx)
	if err != nil {
		return model.Subject{}, fmt.Errorf("failed to list subjects: %w", err)
	}
	return resolveSubject(subjects, ref)
}

// resolveSubject finds a subject by id, or by case-insensitive name.
func resolveSubject(subjects []model.Subject, ref string) (model.Subject, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Subject{}, fmt.Errorf("subject must not be empty")
	}
	for _, subj := range subjects {
		if subj.ID == ref {
			return subj, nil
		}
	}
	var matches []model.Subject
	for _, subj := range subjects {
		if strings.EqualFold(subj.Name, ref) {
			matches = append(matches, subj)
		}
	}
	switch len(matches) {
	case 0:
		return model.Subject{}, fmt.Errorf("%w: %q (run: pacer subjects list)", store.ErrSubjectNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Subject{}, fmt.Errorf("subject name %q is ambiguous; use its id", ref)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func writeLine(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeFileAtomic writes via a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "pacer-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
