// Package dashboard provides the Bubble Tea progress dashboard.
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/progress"
	"github.com/verte-zerg/pacer/internal/stats"
)

const (
	tabOverview = iota
	tabCalendar
	tabSubjects
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#38BDF8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	coinValueStyle  = cardValueStyle.Foreground(lipgloss.Color("#F59E0B"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	selectedStyle   = lipgloss.NewStyle().Underline(true).Bold(true)
	outsideStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	bandStyles      = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#0C4A6E")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#0369A1")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#0B1120")).Background(lipgloss.Color("#38BDF8")).Bold(true),
	}
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	src  stats.SnapshotSource
	opts stats.Options
	now  func() time.Time

	report stats.Report
	errMsg string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	subjectTable table.Model

	month    time.Time
	selected time.Time

	jumpMode  bool
	jumpInput textinput.Model
	jumpError string

	width  int
	height int
}

// NewModel constructs a dashboard model.
func NewModel(src stats.SnapshotSource, opts stats.Options) *Model {
	m := &Model{
		src:  src,
		opts: opts,
		now:  time.Now,
		tabs: []string{"Overview", "Calendar", "Subjects"},
	}
	if !opts.Now.IsZero() {
		fixed := opts.Now
		m.now = func() time.Time { return fixed }
	}
	today := calendar.Day(m.now())
	m.selected = today
	m.month = firstOfMonth(today)
	m.initJumpInput()
	m.initViewports()
	m.subjectTable = buildSubjectTable(nil, 80, 10)
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.jumpMode {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "[":
			m.shiftMonth(-1)
			return m, nil
		case "]":
			m.shiftMonth(1)
			return m, nil
		case ",":
			m.selectDay(calendar.AddDays(m.selected, -1))
			return m, nil
		case ".":
			m.selectDay(calendar.AddDays(m.selected, 1))
			return m, nil
		case "t":
			m.selectDay(calendar.Day(m.now()))
			return m, nil
		case "/":
			return m.startJump()
		default:
			if m.activeTab == tabSubjects {
				var cmd tea.Cmd
				m.subjectTable, cmd = m.subjectTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initJumpInput() {
	input := textinput.New()
	input.Prompt = "Go to date: "
	input.Placeholder = calendar.KeyLayout
	input.CharLimit = len(calendar.KeyLayout)
	input.Cursor.SetMode(cursor.CursorBlink)
	m.jumpInput = input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X"))
	if headerHeight < 1 {
		headerHeight = 1
	}
	footerHeight = 1
	if m.errMsg != "" || m.jumpMode {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.rebuildSubjectTable(m.width, vpHeight)
	m.jumpInput.Width = maxInt(10, m.width-lipgloss.Width(m.jumpInput.Prompt)-2)
}

func (m *Model) rebuildSubjectTable(width, height int) {
	m.subjectTable = buildSubjectTable(m.report.Progress, width, height)
	if m.activeTab == tabSubjects {
		m.subjectTable.Focus()
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSubjects {
		m.subjectTable.Focus()
	} else {
		m.subjectTable.Blur()
	}
}

func (m *Model) shiftMonth(delta int) {
	m.month = m.month.AddDate(0, delta, 0)
	day := m.selected.Day()
	last := m.month.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	m.selected = calendar.AddDays(m.month, day-1)
	m.renderTabContents()
}

func (m *Model) selectDay(day time.Time) {
	m.selected = calendar.Day(day)
	m.month = firstOfMonth(m.selected)
	m.renderTabContents()
}

func (m *Model) startJump() (tea.Model, tea.Cmd) {
	m.jumpMode = true
	m.jumpError = ""
	m.jumpInput.SetValue(calendar.DateKey(m.selected))
	m.jumpInput.CursorEnd()
	return m, m.jumpInput.Focus()
}

func (m *Model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.jumpMode = false
		m.jumpInput.Blur()
		return m, nil
	case tea.KeyEnter:
		day, err := calendar.ParseKey(strings.TrimSpace(m.jumpInput.Value()))
		if err != nil {
			m.jumpError = err.Error()
			return m, nil
		}
		m.jumpMode = false
		m.jumpInput.Blur()
		m.activeTab = tabCalendar
		m.selectDay(day)
		return m, nil
	}
	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

func (m *Model) refreshReport() {
	opts := m.opts
	opts.Now = m.now()
	report, err := stats.BuildReport(context.Background(), m.src, opts)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load progress.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	_, bodyHeight, _ := m.layoutHeights()
	m.rebuildSubjectTable(maxInt(m.width, 80), bodyHeight)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabCalendar].SetContent(renderCalendar(m.report, m.month, m.selected))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabSubjects {
		if len(m.report.Progress) == 0 {
			return fitLines("No subjects yet. Add one with: pacer subjects add <name> <chapters>", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.subjectTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderFooter() string {
	if m.jumpMode {
		line := m.jumpInput.View()
		if m.jumpError != "" {
			line += "  " + errorStyle.Render(m.jumpError)
		}
		return line + "\n" + headerStyle.Render("enter: go  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down  Refresh: r  Quit: q"
	if m.activeTab == tabCalendar {
		help = "Nav: left/right  Month: [ ]  Day: , .  Today: t  Go to: /  Quit: q"
	}
	help = truncateLine(help, m.width)
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func renderOverview(r stats.Report, width int) string {
	cards := []string{
		metricCard("Streak", strconv.Itoa(r.Streak), cardValueStyle),
		metricCard("Target", fmt.Sprintf("%d%%", r.Percent), cardValueStyle),
		metricCard("Wallet", strconv.Itoa(r.Coins), coinValueStyle),
		metricCard("Days left", strconv.Itoa(r.Pace.DaysLeft), cardValueStyle),
		metricCard("Today", fmt.Sprintf("%d/%d", r.Pace.TodayDone, r.Pace.Suggested), cardValueStyle),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	var buf bytes.Buffer
	if err := stats.RenderPlan(&buf, r); err != nil {
		return fmt.Sprintf("Failed to render plan: %v", err)
	}
	if err := stats.RenderActivity(&buf, r.Days, 7); err != nil {
		return fmt.Sprintf("Failed to render activity: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string, valueStyle lipgloss.Style) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), valueStyle.Render(value))
	return cardStyle.Render(content)
}

// renderCalendar draws the month grid with scored days and the selected day's entries.
func renderCalendar(r stats.Report, month, selected time.Time) string {
	start := calendar.AddDays(month, -int(month.Weekday()))
	days := stats.DayScores(r.Snapshot, r.ExamDate, r.Today, start, 42)

	lines := []string{month.Format("January 2006"), "Su Mo Tu We Th Fr Sa"}
	selectedKey := calendar.DateKey(selected)
	for week := 0; week < 6; week++ {
		cells := make([]string, 0, 7)
		for wd := 0; wd < 7; wd++ {
			d := days[week*7+wd]
			cells = append(cells, dayCell(d, d.Date.Month() == month.Month(), d.Key == selectedKey))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	lines = append(lines, "")
	lines = append(lines, renderDayDetail(r, selected)...)
	return strings.Join(lines, "\n")
}

func dayCell(d stats.DayScore, inMonth, selected bool) string {
	label := fmt.Sprintf("%2d", d.Date.Day())
	style := bandStyles[progress.ScoreBand(d.Score)]
	if !inMonth || d.Future {
		style = outsideStyle
	}
	if selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(label)
}

func renderDayDetail(r stats.Report, day time.Time) []string {
	key := calendar.DateKey(day)
	entries := r.Snapshot.Logs[key]
	score := progress.DailyScore(r.Snapshot.Subjects, r.Snapshot.Logs, r.ExamDate, key, r.Today)
	coins := r.Snapshot.Coins[key]
	lines := []string{fmt.Sprintf("%s  score %d  coins %d", day.Format("Mon 02 Jan 2006"), score, coins)}
	if len(entries) == 0 {
		return append(lines, "No entries.")
	}
	names := make(map[string]string, len(r.Snapshot.Subjects))
	for _, s := range r.Snapshot.Subjects {
		names[s.ID] = s.Name
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := entries[ids[i]], entries[ids[j]]
		if a.Timestamp.Equal(b.Timestamp) {
			return ids[i] < ids[j]
		}
		return a.Timestamp.Before(b.Timestamp)
	})
	for _, id := range ids {
		entry := entries[id]
		name, ok := names[entry.SubjectID]
		if !ok {
			name = "Unknown"
		}
		mark := "done"
		if entry.Status != model.StatusCompleted {
			mark = "partial"
		}
		lines = append(lines, fmt.Sprintf("  %s  %s ch %d  %s", entry.Timestamp.Local().Format("15:04"), name, entry.ChapterNumber, mark))
	}
	return lines
}

func buildSubjectTable(rows []model.SubjectProgress, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Subject", Width: maxInt(10, width-40)},
		{Title: "Done", Width: 6},
		{Title: "Total", Width: 6},
		{Title: "Progress", Width: 9},
		{Title: "Next", Width: 6},
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, p := range rows {
		next := "-"
		if p.NextChapter > 0 {
			next = strconv.Itoa(p.NextChapter)
		}
		tableRows = append(tableRows, table.Row{
			p.Subject.Name,
			strconv.Itoa(p.Completed),
			strconv.Itoa(p.Subject.TotalChapters),
			fmt.Sprintf("%d%%", p.Percent),
			next,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#0B1120")).
		Background(lipgloss.Color("#38BDF8"))
	t.SetStyles(styles)
	return t
}

func firstOfMonth(t time.Time) time.Time {
	return calendar.AddDays(t, 1-t.Day())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
