package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/ledger"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/progress"
	"github.com/verte-zerg/pacer/internal/stats"
)

var (
	logDate       string
	logIncomplete bool
	unlogDate     string
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <subject> [chapter]",
		Short: "Record a studied chapter",
		Long:  "Record a studied chapter. Without a chapter, the next one in the plan is logged.",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runLogCmd,
	}
	cmd.Flags().StringVar(&logDate, "date", "", "day to log on (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&logIncomplete, "incomplete", false, "record a partial session that does not complete the chapter")
	return cmd
}

func runLogCmd(cmd *cobra.Command, args []string) error {
	now := nowFunc()
	dateKey, err := parseDay(logDate, now)
	if err != nil {
		return fmt.Errorf("invalid --date value: %w", err)
	}

	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	subj, err := findSubject(ctx, st, args[0])
	if err != nil {
		return err
	}

	var chapter int
	if len(args) == 2 {
		chapter, err = parseChapter(args[1], subj)
		if err != nil {
			return err
		}
	} else {
		logs, err := st.GetLogs(ctx)
		if err != nil {
			return fmt.Errorf("failed to load logs: %w", err)
		}
		next := progress.NextChapters(subj, logs, rootSequential, 1)
		if len(next) == 0 {
			return fmt.Errorf("every chapter of %s is completed; pass a chapter to log a revision", subj.Name)
		}
		chapter = next[0]
	}

	status := model.StatusCompleted
	if logIncomplete {
		status = model.StatusIncomplete
	}
	id, err := st.LogChapter(ctx, subj.ID, chapter, status, dateKey)
	if err != nil {
		return fmt.Errorf("failed to log chapter: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "Logged %s chapter %d on %s (%s, +%d coins, id %s)",
		subj.Name, chapter, dateKey, status, ledger.Reward, id)
}

func parseChapter(value string, subj model.Subject) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("chapter must be a number, got %q", value)
	}
	if n < 1 || n > subj.TotalChapters {
		return 0, fmt.Errorf("chapter must be between 1 and %d for %s", subj.TotalChapters, subj.Name)
	}
	return n, nil
}

func newUnlogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlog <log-id>",
		Short: "Remove a log entry and its coins",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnlogCmd,
	}
	cmd.Flags().StringVar(&unlogDate, "date", "", "day holding the entry (only needed when the id is on several days)")
	return cmd
}

func runUnlogCmd(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	logID := strings.TrimSpace(args[0])
	days, err := st.FindLog(ctx, logID)
	if err != nil {
		return err
	}
	dateKey, err := pickLogDay(days, unlogDate)
	if err != nil {
		return err
	}
	if err := st.DeleteLog(ctx, logID, dateKey); err != nil {
		return fmt.Errorf("failed to remove log entry: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "Removed %s from %s (-%d coins)", logID, dateKey, ledger.Reward)
}

// pickLogDay chooses which of the days holding an entry id to remove it from.
func pickLogDay(days []string, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		day, err := parseDay(requested, nowFunc())
		if err != nil {
			return "", fmt.Errorf("invalid --date value: %w", err)
		}
		for _, d := range days {
			if d == day {
				return d, nil
			}
		}
		return "", fmt.Errorf("entry is not logged on %s (found on %s)", day, strings.Join(days, ", "))
	}
	if len(days) > 1 {
		return "", fmt.Errorf("entry id is logged on several days (%s); pass --date", strings.Join(days, ", "))
	}
	return days[0], nil
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's entries, pace and plan",
		Args:  cobra.NoArgs,
		RunE:  runTodayCmd,
	}
}

func runTodayCmd(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(context.Background(), st, stats.Options{
		Now:        nowFunc(),
		Weeks:      1,
		Sequential: rootSequential,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := writeDayEntries(out, report.Snapshot, calendar.DateKey(report.Today)); err != nil {
		return err
	}
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	return stats.RenderPlan(out, report)
}

// writeDayEntries lists one day's entries in logging order with their ids.
func writeDayEntries(w io.Writer, snap model.Snapshot, dateKey string) error {
	day := snap.Logs[dateKey]
	if err := writeLine(w, "Entries on %s", dateKey); err != nil {
		return err
	}
	if len(day) == 0 {
		if err := writeLine(w, "None yet."); err != nil {
			return err
		}
		return writeLine(w, "")
	}
	names := make(map[string]string, len(snap.Subjects))
	for _, s := range snap.Subjects {
		names[s.ID] = s.Name
	}
	ids := make([]string, 0, len(day))
	for id := range day {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := day[ids[i]], day[ids[j]]
		if a.Timestamp.Equal(b.Timestamp) {
			return ids[i] < ids[j]
		}
		return a.Timestamp.Before(b.Timestamp)
	})
	for _, id := range ids {
		entry := day[id]
		name, ok := names[entry.SubjectID]
		if !ok {
			name = "(deleted subject)"
		}
		if err := writeLine(w, "%s  %s  %s ch %d  %s", id, entry.Timestamp.Local().Format("15:04"), name, entry.ChapterNumber, entry.Status); err != nil {
			return err
		}
	}
	return writeLine(w, "")
}
