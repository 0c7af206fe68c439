package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/model"
	"github.com/verte-zerg/pacer/internal/progress"
	"github.com/verte-zerg/pacer/internal/store"
)

func examTime(t *testing.T, snap model.Snapshot) *time.Time {
	t.Helper()
	if snap.ExamDate == nil {
		return nil
	}
	exam, err := calendar.ParseKey(*snap.ExamDate)
	require.NoError(t, err)
	return &exam
}

func TestRoundTripPreservesDerivedViews(t *testing.T) {
	ctx := context.Background()
	today := time.Now()
	src, err := store.Open(filepath.Join(t.TempDir(), "src.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	a, err := src.AddSubject(ctx, "A", 10)
	require.NoError(t, err)
	b, err := src.AddSubject(ctx, "B", 5)
	require.NoError(t, err)
	for offset, ch := range []int{1, 2, 2, 3} {
		key := calendar.DateKey(calendar.AddDays(today, -offset))
		_, err := src.LogChapter(ctx, a.ID, ch, model.StatusCompleted, key)
		require.NoError(t, err)
	}
	_, err = src.LogChapter(ctx, b.ID, 4, model.StatusIncomplete, calendar.DateKey(today))
	require.NoError(t, err)
	exam := calendar.AddDays(calendar.Day(today), 12)
	require.NoError(t, src.SetExamDate(ctx, &exam))

	before, err := src.Snapshot(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, before))
	require.Contains(t, buf.String(), `"version": "4.0"`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	dst, err := store.Open(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })
	require.NoError(t, dst.Restore(ctx, decoded))
	after, err := dst.Snapshot(ctx)
	require.NoError(t, err)

	require.Equal(t,
		progress.Pace(before.Subjects, before.Logs, examTime(t, before), today),
		progress.Pace(after.Subjects, after.Logs, examTime(t, after), today))
	require.Equal(t, progress.Streak(before.Logs, today), progress.Streak(after.Logs, today))
	for _, subj := range before.Subjects {
		require.Equal(t,
			progress.CompletedChapterSet(subj.ID, before.Logs),
			progress.CompletedChapterSet(subj.ID, after.Logs))
	}
	require.Equal(t, before.Coins, after.Coins)
	require.Equal(t, before.TotalCoins, after.TotalCoins)
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":"3.0","subjects":[],"logs":{},"coins":{},"totalCoins":0,"examDate":null,"startDate":"2024-01-01"}`))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeRejectsCoinMismatch(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":"4.0","coins":{"2024-01-01":10},"totalCoins":30}`))
	require.ErrorIs(t, err, ErrCoinMismatch)
}

func TestDecodeRejectsBadDates(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version":"4.0","logs":{"yesterday":{}}}`))
	require.Error(t, err)
	_, err = Decode(strings.NewReader(`{"version":"4.0","examDate":"soon"}`))
	require.Error(t, err)
}

func TestDecodeNormalizesMissingMaps(t *testing.T) {
	snap, err := Decode(strings.NewReader(`{"version":"4.0","examDate":null,"startDate":"2024-01-01"}`))
	require.NoError(t, err)
	require.NotNil(t, snap.Logs)
	require.NotNil(t, snap.Coins)
	require.NotNil(t, snap.Subjects)
	require.Nil(t, snap.ExamDate)
}

func TestDecodeOriginalShape(t *testing.T) {
	doc := `{
  "version": "4.0",
  "subjects": [{"id": "s1", "name": "Medicine", "totalChapters": 20}],
  "logs": {"2024-05-02": {"l1": {"subjectId": "s1", "chapterNumber": 3, "status": "completed", "timestamp": "2024-05-02T08:00:00.000Z"}}},
  "coins": {"2024-05-02": 10},
  "totalCoins": 10,
  "examDate": "2024-08-01",
  "startDate": "2024-05-01"
}`
	snap, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 3, snap.Logs["2024-05-02"]["l1"].ChapterNumber)
	require.Equal(t, "2024-08-01", *snap.ExamDate)
}

func TestDefaultFileName(t *testing.T) {
	require.Equal(t, "pacer-backup-20240615.json", DefaultFileName(time.Date(2024, 6, 15, 23, 0, 0, 0, time.UTC)))
}
