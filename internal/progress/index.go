// Package progress derives completion, streak, pace and score views from the log.
//
// Every function here is a pure projection of its arguments. Callers pass a
// snapshot taken from the store and an explicit "today"; nothing is cached.
package progress

import "github.com/verte-zerg/pacer/internal/model"

// LatestCompletedChapter returns the highest completed chapter of a subject
// across all days, or 0 if none.
func LatestCompletedChapter(subjectID string, logs model.Logs) int {
	latest := 0
	for _, day := range logs {
		for _, entry := range day {
			if entry.SubjectID != subjectID || entry.Status != model.StatusCompleted {
				continue
			}
			if entry.ChapterNumber > latest {
				latest = entry.ChapterNumber
			}
		}
	}
	return latest
}

// CompletedChapterSet returns every chapter of a subject completed on any day.
func CompletedChapterSet(subjectID string, logs model.Logs) map[int]struct{} {
	set := map[int]struct{}{}
	for _, day := range logs {
		for _, entry := range day {
			if entry.SubjectID == subjectID && entry.Status == model.StatusCompleted {
				set[entry.ChapterNumber] = struct{}{}
			}
		}
	}
	return set
}

type chapterRef struct {
	subjectID string
	chapter   int
}

// TotalCompletedCount counts distinct completed (subject, chapter) pairs.
func TotalCompletedCount(logs model.Logs) int {
	seen := map[chapterRef]struct{}{}
	for _, day := range logs {
		for _, entry := range day {
			if entry.Status == model.StatusCompleted {
				seen[chapterRef{subjectID: entry.SubjectID, chapter: entry.ChapterNumber}] = struct{}{}
			}
		}
	}
	return len(seen)
}

// SubjectSummary reports completion for every subject, in the given order.
func SubjectSummary(subjects []model.Subject, logs model.Logs, sequential bool) []model.SubjectProgress {
	out := make([]model.SubjectProgress, 0, len(subjects))
	for _, s := range subjects {
		done := len(CompletedChapterSet(s.ID, logs))
		percent := 0
		if s.TotalChapters > 0 {
			percent = roundPercent(done, s.TotalChapters)
		}
		next := 0
		if chapters := NextChapters(s, logs, sequential, 1); len(chapters) > 0 {
			next = chapters[0]
		}
		out = append(out, model.SubjectProgress{
			Subject:     s,
			Completed:   done,
			Latest:      LatestCompletedChapter(s.ID, logs),
			NextChapter: next,
			Percent:     percent,
		})
	}
	return out
}
