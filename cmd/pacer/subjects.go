package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacer/internal/config"
	"github.com/verte-zerg/pacer/internal/curriculum"
	"github.com/verte-zerg/pacer/internal/model"
)

var (
	subjectsEditName     string
	subjectsEditChapters int
	subjectsLoadFile     string
	subjectsReplaceYes   bool
)

func newSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Manage the curriculum",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsListCmd,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subjects",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <chapters>",
		Short: "Add a subject",
		Args:  cobra.ExactArgs(2),
		RunE:  runSubjectsAddCmd,
	})

	editCmd := &cobra.Command{
		Use:   "edit <subject>",
		Short: "Rename a subject or change its chapter count",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubjectsEditCmd,
	}
	editCmd.Flags().StringVar(&subjectsEditName, "name", "", "new name")
	editCmd.Flags().IntVar(&subjectsEditChapters, "chapters", 0, "new chapter count")
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <subject>",
		Short: "Delete a subject and its log entries",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubjectsDeleteCmd,
	})

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Replace the curriculum with the built-in subjects",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsDefaultsCmd,
	}
	defaultsCmd.Flags().BoolVar(&subjectsReplaceYes, "yes", false, "replace existing subjects")
	cmd.AddCommand(defaultsCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the curriculum from a file",
		Args:  cobra.NoArgs,
		RunE:  runSubjectsLoadCmd,
	}
	loadCmd.Flags().StringVar(&subjectsLoadFile, "file", "", "curriculum file (default: [curriculum] file)")
	loadCmd.Flags().BoolVar(&subjectsReplaceYes, "yes", false, "replace existing subjects")
	cmd.AddCommand(loadCmd)

	return cmd
}

func runSubjectsListCmd(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	subjects, err := st.ListSubjects(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(subjects) == 0 {
		logErrln("No subjects yet. Add one with: pacer subjects add <name> <chapters>")
		logErrln("Or load the built-in curriculum: pacer subjects defaults")
		return nil
	}
	return writeSubjects(out, subjects)
}

func writeSubjects(out io.Writer, subjects []model.Subject) error {
	width := 0
	for _, subj := range subjects {
		if w := runewidth.StringWidth(subj.Name); w > width {
			width = w
		}
	}
	for _, subj := range subjects {
		name := runewidth.FillRight(subj.Name, width)
		if err := writeLine(out, "%s  %s  %d", subj.ID, name, subj.TotalChapters); err != nil {
			return err
		}
	}
	return nil
}

func runSubjectsAddCmd(cmd *cobra.Command, args []string) error {
	chapters, err := parseChapterCount(args[1])
	if err != nil {
		return err
	}
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	subj, err := st.AddSubject(context.Background(), args[0], chapters)
	if err != nil {
		return fmt.Errorf("failed to add subject: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "Added %s (%d chapters, id %s)", subj.Name, subj.TotalChapters, subj.ID)
}

func runSubjectsEditCmd(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("chapters") {
		return fmt.Errorf("nothing to change: pass --name and/or --chapters")
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
	name := subj.Name
	if cmd.Flags().Changed("name") {
		name = subjectsEditName
	}
	chapters := subj.TotalChapters
	if cmd.Flags().Changed("chapters") {
		chapters = subjectsEditChapters
	}
	edited, err := st.EditSubject(ctx, subj.ID, name, chapters)
	if err != nil {
		return fmt.Errorf("failed to edit subject: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "Updated %s (%d chapters)", edited.Name, edited.TotalChapters)
}

func runSubjectsDeleteCmd(cmd *cobra.Command, args []string) error {
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
	if err := st.DeleteSubject(ctx, subj.ID); err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	return writeLine(cmd.OutOrStdout(), "Deleted %s and its log entries", subj.Name)
}

func runSubjectsDefaultsCmd(cmd *cobra.Command, _ []string) error {
	return replaceSubjects(cmd, curriculum.Default(), "built-in curriculum")
}

func runSubjectsLoadCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "file", &subjectsLoadFile, fileCfg.Curriculum.File)
	path := expandHome(strings.TrimSpace(subjectsLoadFile))
	if path == "" {
		return fmt.Errorf("no curriculum file: pass --file or set [curriculum] file in the config")
	}
	subjects, err := curriculum.Load(path)
	if err != nil {
		return err
	}
	return replaceSubjects(cmd, subjects, path)
}

func replaceSubjects(cmd *cobra.Command, subjects []model.Subject, source string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	existing, err := st.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}
	if len(existing) > 0 && !subjectsReplaceYes {
		return fmt.Errorf("%d subjects already exist; pass --yes to replace them", len(existing))
	}
	out, err := st.ReplaceSubjects(ctx, subjects)
	if err != nil {
		return fmt.Errorf("failed to replace subjects: %w", err)
	}
	if err := writeLine(cmd.OutOrStdout(), "Loaded %d subjects from %s", len(out), source); err != nil {
		return err
	}
	return writeSubjects(cmd.OutOrStdout(), out)
}

func parseChapterCount(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("chapters must be a positive integer, got %q", value)
	}
	return n, nil
}
