// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/ledger"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/progress"
)

// DefaultWeeks is the heatmap width used when none is configured.
const DefaultWeeks = 12

// SnapshotSource provides consistent store snapshots.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Options controls report generation.
type Options struct {
	Now        time.Time
	Weeks      int
	Sequential bool
}

// DayScore holds the activity of one calendar day.
type DayScore struct {
	Key         string
	Date        time.Time
	Entries     int
	Completions int
	Score       int
	Future      bool
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Today      time.Time
	ExamDate   *time.Time
	StartDate  string
	Subjects   []model.Subject
	Pace       model.PaceStats
	Percent    int
	Streak     int
	Coins      int
	CoinsToday int
	Progress   []model.SubjectProgress
	Plan       []model.PlanItem
	Days       []DayScore
	Snapshot   model.Snapshot
}

// BuildReport loads a snapshot and prepares data for stats rendering.
func BuildReport(ctx context.Context, src SnapshotSource, opts Options) (Report, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	return FromSnapshot(snap, opts)
}

// FromSnapshot derives every view of the report from one snapshot.
func FromSnapshot(snap model.Snapshot, opts Options) (Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}

	var exam *time.Time
	if snap.ExamDate != nil {
		parsed, err := calendar.ParseKey(*snap.ExamDate)
		if err != nil {
			return Report{}, err
		}
		exam = &parsed
	}

	pace := progress.Pace(snap.Subjects, snap.Logs, exam, now)
	coins := ledger.FromDays(snap.Coins, snap.TotalCoins)
	return Report{
		Today:      now,
		ExamDate:   exam,
		StartDate:  snap.StartDate,
		Subjects:   snap.Subjects,
		Pace:       pace,
		Percent:    progress.ProgressPercent(pace),
		Streak:     progress.Streak(snap.Logs, now),
		Coins:      coins.Total,
		CoinsToday: coins.Day(calendar.DateKey(now)),
		Progress:   progress.SubjectSummary(snap.Subjects, snap.Logs, opts.Sequential),
		Plan:       progress.Plan(snap.Subjects, snap.Logs, pace, opts.Sequential),
		Days:       DayScores(snap, exam, now, HeatmapStart(now, weeks), weeks*7),
		Snapshot:   snap,
	}, nil
}

// HeatmapStart returns the Sunday that opens a grid of the given weeks ending
// in the current week.
func HeatmapStart(now time.Time, weeks int) time.Time {
	day := calendar.Day(now)
	day = calendar.AddDays(day, -int(day.Weekday()))
	return calendar.AddDays(day, -7*(weeks-1))
}

// DayScores scores count consecutive days starting at from.
func DayScores(snap model.Snapshot, exam *time.Time, now, from time.Time, count int) []DayScore {
	todayKey := calendar.DateKey(now)
	days := make([]DayScore, 0, count)
	for i := 0; i < count; i++ {
		date := calendar.AddDays(from, i)
		key := calendar.DateKey(date)
		day := snap.Logs[key]
		days = append(days, DayScore{
			Key:         key,
			Date:        date,
			Entries:     len(day),
			Completions: day.Completed(),
			Score:       progress.DailyScore(snap.Subjects, snap.Logs, exam, key, now),
			Future:      key > todayKey,
		})
	}
	return days
}
