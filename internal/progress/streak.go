package progress

import (
	"time"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/model"
)

// Streak counts consecutive active days ending today. A day is active when its
// log holds at least one entry. An inactive today means a streak of 0.
func Streak(logs model.Logs, today time.Time) int {
	day := calendar.Day(today)
	streak := 0
	// Each step consumes one stored key, so the walk cannot outrun the store.
	for streak <= len(logs) {
		if !logs.Active(calendar.DateKey(day)) {
			break
		}
		streak++
		day = calendar.AddDays(day, -1)
	}
	return streak
}
