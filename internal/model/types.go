// Package model defines shared data structures.
package model

import "time"

// SnapshotVersion is the version written into exported documents.
const SnapshotVersion = "4.0"

// Status marks whether a logged chapter counts as done.
type Status string

const (
	// StatusCompleted marks a chapter as done.
	StatusCompleted Status = "completed"
	// StatusIncomplete records activity without completing the chapter.
	StatusIncomplete Status = "incomplete"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCompleted || s == StatusIncomplete
}

// Subject is one curriculum subject.
type Subject struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalChapters int    `json:"totalChapters"`
}

// LogEntry records one act of marking a chapter.
type LogEntry struct {
	SubjectID     string    `json:"subjectId"`
	ChapterNumber int       `json:"chapterNumber"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// DailyLog maps log identifiers to entries recorded on one day.
type DailyLog map[string]LogEntry

// Logs maps date keys to the entries recorded on that day.
type Logs map[string]DailyLog

// Completed counts entries with StatusCompleted. Duplicates are not collapsed.
func (d DailyLog) Completed() int {
	n := 0
	for _, entry := range d {
		if entry.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Active reports whether anything was recorded on the given day.
func (l Logs) Active(dateKey string) bool {
	return len(l[dateKey]) > 0
}

// Snapshot is a consistent copy of everything the progress store holds.
type Snapshot struct {
	Version    string         `json:"version"`
	Subjects   []Subject      `json:"subjects"`
	Logs       Logs           `json:"logs"`
	Coins      map[string]int `json:"coins"`
	TotalCoins int            `json:"totalCoins"`
	ExamDate   *string        `json:"examDate"`
	StartDate  string         `json:"startDate"`
}

// PaceStats summarizes remaining work against the deadline.
type PaceStats struct {
	Total     int
	Completed int
	Remaining int
	DaysLeft  int
	Suggested int
	TodayDone int
}

// SubjectProgress summarizes completion for one subject.
type SubjectProgress struct {
	Subject     Subject
	Completed   int
	Latest      int
	NextChapter int
	Percent     int
}

// PlanItem names chapters suggested for one subject today.
type PlanItem struct {
	Subject  Subject
	Chapters []int
}
