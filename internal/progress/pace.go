package progress

import (
	"math"
	"time"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/model"
)

// DefaultHorizonDays is the planning horizon used when no exam date is set.
const DefaultHorizonDays = 30

// Pace computes total and remaining work, days until the exam and the daily
// chapter quota. examDate may be nil.
func Pace(subjects []model.Subject, logs model.Logs, examDate *time.Time, today time.Time) model.PaceStats {
	total := 0
	for _, s := range subjects {
		total += s.TotalChapters
	}
	completed := TotalCompletedCount(logs)
	remaining := total - completed
	if remaining < 0 {
		remaining = 0
	}

	daysLeft := DefaultHorizonDays
	if examDate != nil {
		daysLeft = calendar.DaysBetween(today, *examDate)
	}

	return model.PaceStats{
		Total:     total,
		Completed: completed,
		Remaining: remaining,
		DaysLeft:  daysLeft,
		Suggested: SuggestedQuota(remaining, daysLeft),
		TodayDone: logs[calendar.DateKey(today)].Completed(),
	}
}

// SuggestedQuota spreads remaining chapters over the days left. Once the
// deadline is today or past, all remaining work is due now.
func SuggestedQuota(remaining, daysLeft int) int {
	if daysLeft <= 0 {
		return remaining
	}
	return int(math.Ceil(float64(remaining) / float64(daysLeft)))
}

// ProgressPercent is completed/total as a whole percent, 0 for an empty curriculum.
func ProgressPercent(stats model.PaceStats) int {
	if stats.Total <= 0 {
		return 0
	}
	return roundPercent(stats.Completed, stats.Total)
}

func roundPercent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}
