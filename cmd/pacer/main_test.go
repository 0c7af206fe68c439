package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pacer/internal/config"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/store"
)

var cliNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.Local)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	prev := nowFunc
	nowFunc = func() time.Time { return cliNow }
	t.Cleanup(func() { nowFunc = prev })
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "pacer %s", strings.Join(args, " "))
	return out
}

func loggedID(t *testing.T, out string) string {
	t.Helper()
	idx := strings.LastIndex(out, "id ")
	require.GreaterOrEqual(t, idx, 0, out)
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(out[idx+3:]), ")"))
}

func TestCLIWorkflow(t *testing.T) {
	setupCLI(t)

	out := mustRunCLI(t, "subjects", "add", "Anatomy", "3")
	require.Contains(t, out, "Added Anatomy (3 chapters")

	out = mustRunCLI(t, "log", "anatomy")
	require.Contains(t, out, "Logged Anatomy chapter 1 on 2024-06-15")
	first := loggedID(t, out)

	out = mustRunCLI(t, "log", "Anatomy")
	require.Contains(t, out, "Logged Anatomy chapter 2 on 2024-06-15")

	out = mustRunCLI(t, "log", "Anatomy", "2", "--date", "2024-06-14", "--incomplete")
	require.Contains(t, out, "chapter 2 on 2024-06-14 (incomplete")

	_, err := runCLI(t, "log", "Anatomy", "9")
	require.ErrorContains(t, err, "between 1 and 3")
	_, err = runCLI(t, "log", "Physiology")
	require.Error(t, err)

	out = mustRunCLI(t, "today")
	require.Contains(t, out, first)
	require.Contains(t, out, "Anatomy ch 1")
	require.Contains(t, out, "Streak: 2 days")
	require.Contains(t, out, "Coins: 30 (today +20)")

	out = mustRunCLI(t, "unlog", first)
	require.Contains(t, out, "Removed "+first+" from 2024-06-15")
	_, err = runCLI(t, "unlog", first)
	require.Error(t, err)

	out = mustRunCLI(t, "stats", "--weeks", "2", "--color=false")
	require.Contains(t, out, "Progress: 1/3 chapters (33%)")
	require.Contains(t, out, "Coins: 20 (today +10)")
}

func TestCLIExportResetImport(t *testing.T) {
	dir := setupCLI(t)
	mustRunCLI(t, "subjects", "add", "Anatomy", "3")
	mustRunCLI(t, "log", "Anatomy", "1")
	mustRunCLI(t, "exam", "2024-07-15")

	backup := filepath.Join(dir, "backup.json")
	mustRunCLI(t, "export", "--out", backup)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	require.Contains(t, string(data), `"version": "4.0"`)

	_, err = runCLI(t, "reset")
	require.Error(t, err)
	mustRunCLI(t, "reset", "--yes")
	out := mustRunCLI(t, "stats")
	require.Contains(t, out, "Coins: 0")

	out = mustRunCLI(t, "import", backup)
	require.Contains(t, out, "Imported 1 subjects, 1 log entries, 10 coins")
	out = mustRunCLI(t, "exam")
	require.Contains(t, out, "Exam date: 2024-07-15 (30 days left)")

	out = mustRunCLI(t, "exam", "--clear")
	require.Contains(t, out, "Exam date cleared")
}

func TestCLIExamInThePast(t *testing.T) {
	setupCLI(t)
	out := mustRunCLI(t, "exam", "2024-06-10")
	require.Contains(t, out, "Exam date set to 2024-06-10 (passed 5 days ago)")
	out = mustRunCLI(t, "exam")
	require.Contains(t, out, "Exam date: 2024-06-10 (passed 5 days ago)")

	out = mustRunCLI(t, "exam", "2024-06-15")
	require.Contains(t, out, "(today)")
}

func TestDescribeExamDistance(t *testing.T) {
	cases := map[int]string{
		30: "30 days left",
		1:  "1 day left",
		0:  "today",
		-1: "passed 1 day ago",
		-9: "passed 9 days ago",
	}
	for days, want := range cases {
		require.Equal(t, want, describeExamDistance(days))
	}
}

func TestCLISubjectsByID(t *testing.T) {
	setupCLI(t)
	out := mustRunCLI(t, "subjects", "add", "Anatomy", "3")
	idx := strings.LastIndex(out, "id ")
	require.GreaterOrEqual(t, idx, 0, out)
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(out[idx+3:]), ")"))

	out = mustRunCLI(t, "subjects", "edit", id, "--name", "Neuro")
	require.Contains(t, out, "Updated Neuro (3 chapters)")
	out = mustRunCLI(t, "log", id, "2")
	require.Contains(t, out, "Logged Neuro chapter 2")
	out = mustRunCLI(t, "subjects", "delete", "  "+id+" ")
	require.Contains(t, out, "Deleted Neuro")
	_, err := runCLI(t, "log", id)
	require.ErrorIs(t, err, store.ErrSubjectNotFound)
}

func TestWriteSubjectsAlignsWideNames(t *testing.T) {
	subjects := []model.Subject{
		{ID: "a1", Name: "Anatomie générale", TotalChapters: 12},
		{ID: "b1", Name: "解剖学", TotalChapters: 8},
		{ID: "c1", Name: "Ortho", TotalChapters: 5},
	}
	var out bytes.Buffer
	require.NoError(t, writeSubjects(&out, subjects))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, len(subjects))
	col := -1
	for i, line := range lines {
		digits := strings.TrimRight(line, "0123456789")
		require.NotEqual(t, line, digits, "line %d has no chapter count", i)
		width := runewidth.StringWidth(digits)
		if col < 0 {
			col = width
		}
		require.Equal(t, col, width, "line %d: %q", i, line)
	}
}

func TestCLISubjectsDefaultsNeedsConfirmation(t *testing.T) {
	setupCLI(t)
	out := mustRunCLI(t, "subjects", "defaults")
	require.Contains(t, out, "Loaded 7 subjects")
	_, err := runCLI(t, "subjects", "defaults")
	require.ErrorContains(t, err, "--yes")
	mustRunCLI(t, "subjects", "defaults", "--yes")

	out = mustRunCLI(t, "subjects", "edit", "ent", "--chapters", "90")
	require.Contains(t, out, "Updated Ent (90 chapters)")
	out = mustRunCLI(t, "subjects", "delete", "Ortho")
	require.Contains(t, out, "Deleted Ortho")
	out = mustRunCLI(t, "subjects", "list")
	require.NotContains(t, out, "Ortho")
}

func TestCLISubjectsLoadFromConfig(t *testing.T) {
	dir := setupCLI(t)
	file := filepath.Join(dir, "curriculum.txt")
	require.NoError(t, os.WriteFile(file, []byte("# semester one\nAnatomy, 12\nPhysiology, 9\n"), 0o644))
	cfgPath := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[curriculum]\nfile = \""+filepath.ToSlash(file)+"\"\n"), 0o644))

	out := mustRunCLI(t, "subjects", "load")
	require.Contains(t, out, "Loaded 2 subjects")
	require.Contains(t, out, "Physiology")
}

func TestResolveSubject(t *testing.T) {
	subjects := []model.Subject{
		{ID: "a1", Name: "Anatomy", TotalChapters: 3},
		{ID: "b1", Name: "Biochem", TotalChapters: 4},
		{ID: "b2", Name: "biochem", TotalChapters: 5},
	}
	got, err := resolveSubject(subjects, "a1")
	require.NoError(t, err)
	require.Equal(t, "Anatomy", got.Name)
	got, err = resolveSubject(subjects, " ANATOMY ")
	require.NoError(t, err)
	require.Equal(t, "a1", got.ID)
	_, err = resolveSubject(subjects, "Biochem")
	require.ErrorContains(t, err, "ambiguous")
	got, err = resolveSubject(subjects, "b2")
	require.NoError(t, err)
	require.Equal(t, 5, got.TotalChapters)
	_, err = resolveSubject(subjects, "")
	require.Error(t, err)
}

func TestParseDay(t *testing.T) {
	got, err := parseDay("", cliNow)
	require.NoError(t, err)
	require.Equal(t, "2024-06-15", got)
	got, err = parseDay(" 2024-02-29 ", cliNow)
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", got)
	_, err = parseDay("2023-02-29", cliNow)
	require.Error(t, err)
}

func TestPickLogDay(t *testing.T) {
	setupCLI(t)
	day, err := pickLogDay([]string{"2024-06-10"}, "")
	require.NoError(t, err)
	require.Equal(t, "2024-06-10", day)
	_, err = pickLogDay([]string{"2024-06-10", "2024-06-11"}, "")
	require.ErrorContains(t, err, "--date")
	day, err = pickLogDay([]string{"2024-06-10", "2024-06-11"}, "2024-06-11")
	require.NoError(t, err)
	require.Equal(t, "2024-06-11", day)
	_, err = pickLogDay([]string{"2024-06-10"}, "2024-06-12")
	require.Error(t, err)
}

func TestResolveExportPath(t *testing.T) {
	dir := setupCLI(t)
	require.Equal(t, filepath.Join(config.DefaultExportDir(), "pacer-backup-20240615.json"), resolveExportPath("", cliNow))
	require.Equal(t, filepath.Join(dir, "pacer-backup-20240615.json"), resolveExportPath(dir, cliNow))
	require.Equal(t, filepath.Join(dir, "x.json"), resolveExportPath(filepath.Join(dir, "x.json"), cliNow))
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	meta, err := toml.Decode(defaultConfigTemplate(), &cfg)
	require.NoError(t, err)
	require.Empty(t, meta.Undecoded())
	require.Nil(t, cfg.Plan.Sequential)
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := newStatsCmd()
	weeks := 4
	applyIntConfig(cmd, "weeks", &statsWeeks, &weeks)
	require.Equal(t, 4, statsWeeks)

	require.NoError(t, cmd.Flags().Set("weeks", "9"))
	applyIntConfig(cmd, "weeks", &statsWeeks, &weeks)
	require.Equal(t, 9, statsWeeks)
}
