package progress

import (
	"math"
	"time"

	"github.com/verte-zerg/pacer/internal/model"
)

// MaxScore is the score of a day that met the quota.
const MaxScore = 100

// DailyScore grades the completions of one day against today's suggested
// quota, not the quota that applied on that day.
func DailyScore(subjects []model.Subject, logs model.Logs, examDate *time.Time, dateKey string, today time.Time) int {
	day := logs[dateKey]
	if len(day) == 0 {
		return 0
	}
	suggested := Pace(subjects, logs, examDate, today).Suggested
	return ScoreAgainst(day.Completed(), suggested)
}

// ScoreAgainst maps completions against a quota onto [0, MaxScore].
func ScoreAgainst(completions, suggested int) int {
	if suggested <= 0 {
		return MaxScore
	}
	score := int(math.Round(float64(completions) / float64(suggested) * MaxScore))
	if score > MaxScore {
		return MaxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// ScoreBand buckets a score into the intensity levels of the calendar heatmap.
func ScoreBand(score int) int {
	switch {
	case score > 75:
		return 3
	case score > 40:
		return 2
	case score > 0:
		return 1
	default:
		return 0
	}
}
