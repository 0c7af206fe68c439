package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/stats"
)

type fakeSource struct {
	snap model.Snapshot
	err  error
}

func (f fakeSource) Snapshot(context.Context) (model.Snapshot, error) {
	return f.snap, f.err
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Version:  model.SnapshotVersion,
		Subjects: []model.Subject{{ID: "s1", Name: "Anatomy", TotalChapters: 10}},
		Logs: model.Logs{
			"2024-06-15": {
				"l1": {SubjectID: "s1", ChapterNumber: 1, Status: model.StatusCompleted, Timestamp: testNow},
			},
		},
		Coins:      map[string]int{"2024-06-15": 10},
		TotalCoins: 10,
		StartDate:  "2024-06-01",
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel(fakeSource{snap: testSnapshot()}, stats.Options{Now: testNow})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOverviewShowsMetrics(t *testing.T) {
	m := newTestModel(t)
	out := m.View()
	if !containsAll(out, []string{"Overview", "Streak", "Wallet", "Days left", "1/1", "Quota met for today."}) {
		t.Fatalf("overview missing expected segments:\n%s", out)
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabSubjects {
		t.Fatalf("expected subjects tab, got %d", m.activeTab)
	}
	out := m.View()
	if !containsAll(out, []string{"Anatomy", "10%"}) {
		t.Fatalf("subjects tab missing row:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected overview tab, got %d", m.activeTab)
	}
}

func TestCalendarMonthNavigation(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "June 2024") {
		t.Fatalf("expected June heading:\n%s", m.View())
	}
	m.Update(runeKey("]"))
	if got := m.month.Format("2006-01"); got != "2024-07" {
		t.Fatalf("expected July, got %s", got)
	}
	if !strings.Contains(m.View(), "July 2024") {
		t.Fatalf("expected July heading:\n%s", m.View())
	}
	m.Update(runeKey("t"))
	if got := m.selected.Format("2006-01-02"); got != "2024-06-15" {
		t.Fatalf("expected today selected, got %s", got)
	}
}

func TestShiftMonthClampsDay(t *testing.T) {
	m := newTestModel(t)
	m.selectDay(time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local))
	m.shiftMonth(1)
	if got := m.selected.Format("2006-01-02"); got != "2024-02-29" {
		t.Fatalf("expected clamped leap day, got %s", got)
	}
}

func TestJumpToDate(t *testing.T) {
	m := newTestModel(t)
	m.Update(runeKey("/"))
	if !m.jumpMode {
		t.Fatalf("expected jump mode")
	}
	m.jumpInput.SetValue("2024-03-05")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.jumpMode {
		t.Fatalf("expected jump mode to close")
	}
	if m.activeTab != tabCalendar {
		t.Fatalf("expected calendar tab, got %d", m.activeTab)
	}
	if got := m.selected.Format("2006-01-02"); got != "2024-03-05" {
		t.Fatalf("unexpected selected day %s", got)
	}

	m.Update(runeKey("/"))
	m.jumpInput.SetValue("soon")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.jumpMode || m.jumpError == "" {
		t.Fatalf("expected invalid date to keep jump mode open")
	}
}

func TestDayDetailListsEntries(t *testing.T) {
	m := newTestModel(t)
	lines := renderDayDetail(m.report, testNow)
	out := strings.Join(lines, "\n")
	if !containsAll(out, []string{"score 100", "coins 10", "Anatomy ch 1", "done"}) {
		t.Fatalf("day detail missing expected segments:\n%s", out)
	}
	empty := renderDayDetail(m.report, testNow.AddDate(0, 0, -3))
	if empty[len(empty)-1] != "No entries." {
		t.Fatalf("expected empty day, got %v", empty)
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	m := NewModel(fakeSource{err: errors.New("db locked")}, stats.Options{Now: testNow})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "db locked") {
		t.Fatalf("expected error in footer:\n%s", m.View())
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
