package progress

import (
	"sort"

	"github.com/verte-zerg/pacer/internal/model"
)

// NextChapters returns up to n chapters of a subject to study next.
// Sequential mode continues after the latest completed chapter; otherwise the
// lowest chapters missing from the completed set come first.
func NextChapters(subject model.Subject, logs model.Logs, sequential bool, n int) []int {
	if n <= 0 || subject.TotalChapters <= 0 {
		return nil
	}
	var out []int
	if sequential {
		for ch := LatestCompletedChapter(subject.ID, logs) + 1; ch <= subject.TotalChapters && len(out) < n; ch++ {
			out = append(out, ch)
		}
		return out
	}
	done := CompletedChapterSet(subject.ID, logs)
	for ch := 1; ch <= subject.TotalChapters && len(out) < n; ch++ {
		if _, ok := done[ch]; ok {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Plan spreads what is left of today's quota across subjects in proportion to
// their remaining chapters and names the chapters to do.
func Plan(subjects []model.Subject, logs model.Logs, stats model.PaceStats, sequential bool) []model.PlanItem {
	quota := stats.Suggested - stats.TodayDone
	if quota <= 0 {
		return nil
	}
	remaining := make([]int, len(subjects))
	sum := 0
	for i, s := range subjects {
		r := s.TotalChapters - len(CompletedChapterSet(s.ID, logs))
		if r < 0 {
			r = 0
		}
		remaining[i] = r
		sum += r
	}
	if sum == 0 {
		return nil
	}

	alloc := allocate(remaining, sum, quota)
	var items []model.PlanItem
	for i, s := range subjects {
		if alloc[i] == 0 {
			continue
		}
		chapters := NextChapters(s, logs, sequential, alloc[i])
		if len(chapters) == 0 {
			continue
		}
		items = append(items, model.PlanItem{Subject: s, Chapters: chapters})
	}
	return items
}

// allocate splits quota by weight using the largest remainder method.
// Ties go to the earlier index.
func allocate(weights []int, sum, quota int) []int {
	alloc := make([]int, len(weights))
	if quota >= sum {
		copy(alloc, weights)
		return alloc
	}
	type rem struct {
		idx  int
		frac int
	}
	rems := make([]rem, 0, len(weights))
	given := 0
	for i, w := range weights {
		alloc[i] = quota * w / sum
		given += alloc[i]
		rems = append(rems, rem{idx: i, frac: quota * w % sum})
	}
	sort.SliceStable(rems, func(i, j int) bool {
		return rems[i].frac > rems[j].frac
	})
	for i := 0; given < quota && i < len(rems); i++ {
		if weights[rems[i].idx] == 0 {
			continue
		}
		alloc[rems[i].idx]++
		given++
	}
	return alloc
}
