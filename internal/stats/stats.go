// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/progress"
)

const sparkChars = " .:-=+*#%@"

const colorReset = "\x1b[0m"

// heatGlyphs are indexed by progress.ScoreBand.
var heatGlyphs = []string{"·", "░", "▒", "█"}

var heatColors = []string{"\x1b[90m", "\x1b[36m", "\x1b[96m", "\x1b[1;96m"}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints streak, pace and coin figures.
func RenderSummary(w io.Writer, r Report) error {
	exam := fmt.Sprintf("no exam date, %d-day horizon", progress.DefaultHorizonDays)
	if r.ExamDate != nil {
		exam = "exam " + calendar.DateKey(*r.ExamDate)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Streak: %d %s", r.Streak, plural(r.Streak, "day", "days")),
		fmt.Sprintf("Progress: %d/%d chapters (%d%%)", r.Pace.Completed, r.Pace.Total, r.Percent),
		fmt.Sprintf("Remaining: %d", r.Pace.Remaining),
		fmt.Sprintf("Days left: %d (%s)", r.Pace.DaysLeft, exam),
		fmt.Sprintf("Suggested today: %d (done %d)", r.Pace.Suggested, r.Pace.TodayDone),
		fmt.Sprintf("Coins: %d (today %+d)", r.Coins, r.CoinsToday),
		"",
	}
	return writeLines(w, lines)
}

// RenderSubjectTable prints per-subject completion.
func RenderSubjectTable(w io.Writer, r Report) error {
	if len(r.Progress) == 0 {
		_, err := fmt.Fprintln(w, "No subjects yet. Add one with: pacer subjects add <name> <chapters>")
		return err
	}
	headers := []string{"Subject", "Done", "Total", "Progress", "Latest", "Next"}
	rows := make([][]string, 0, len(r.Progress))
	for _, p := range r.Progress {
		next := "-"
		if p.NextChapter > 0 {
			next = strconv.Itoa(p.NextChapter)
		}
		rows = append(rows, []string{
			p.Subject.Name,
			strconv.Itoa(p.Completed),
			strconv.Itoa(p.Subject.TotalChapters),
			fmt.Sprintf("%d%%", p.Percent),
			strconv.Itoa(p.Latest),
			next,
		})
	}
	lines := append([]string{"Subjects"}, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderPlan prints the chapters suggested for the rest of today.
func RenderPlan(w io.Writer, r Report) error {
	lines := []string{"Today's plan"}
	if len(r.Plan) == 0 {
		if r.Pace.Remaining == 0 && r.Pace.Total > 0 {
			lines = append(lines, "Curriculum complete.")
		} else {
			lines = append(lines, "Quota met for today.")
		}
	}
	for _, item := range r.Plan {
		chapters := make([]string, len(item.Chapters))
		for i, ch := range item.Chapters {
			chapters[i] = strconv.Itoa(ch)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", item.Subject.Name, strings.Join(chapters, ", ")))
	}
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderHeatmap prints a week-per-column calendar of daily scores.
func RenderHeatmap(w io.Writer, days []DayScore, useColor bool) error {
	if len(days) == 0 {
		return nil
	}
	weekdays := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	weeks := (len(days) + 6) / 7
	lines := []string{fmt.Sprintf("Activity %s .. %s", days[0].Key, days[len(days)-1].Key)}
	for row := 0; row < 7; row++ {
		var b strings.Builder
		b.WriteString(weekdays[row])
		b.WriteByte(' ')
		for col := 0; col < weeks; col++ {
			idx := col*7 + row
			if idx >= len(days) || days[idx].Future {
				b.WriteString("  ")
				continue
			}
			b.WriteByte(' ')
			b.WriteString(heatCell(days[idx].Score, useColor))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	legend := make([]string, len(heatGlyphs))
	for band, label := range []string{"none", "1-40", "41-75", "76-100"} {
		legend[band] = heatCell(bandFloor(band), useColor) + " " + label
	}
	lines = append(lines, "Legend: "+strings.Join(legend, "  "), "")
	return writeLines(w, lines)
}

// RenderActivity prints a sparkline of daily completions with a moving average.
func RenderActivity(w io.Writer, days []DayScore, window int) error {
	var values []float64
	for _, d := range days {
		if d.Future {
			break
		}
		values = append(values, float64(d.Completions))
	}
	if len(values) == 0 {
		return nil
	}
	avg := MovingAverage(values, window)
	lines := []string{
		"Completions per day",
		"daily  |" + Sparkline(values) + "|",
		fmt.Sprintf("avg(%d) |%s|", window, Sparkline(avg)),
		fmt.Sprintf("Latest %d-day average: %.1f", window, avg[len(avg)-1]),
		"",
	}
	return writeLines(w, lines)
}

func heatCell(score int, useColor bool) string {
	band := progress.ScoreBand(score)
	if !useColor {
		return heatGlyphs[band]
	}
	return heatColors[band] + heatGlyphs[band] + colorReset
}

// bandFloor returns a score that falls into the given band.
func bandFloor(band int) int {
	switch band {
	case 1:
		return 1
	case 2:
		return 41
	case 3:
		return 76
	default:
		return 0
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
