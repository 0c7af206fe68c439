// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/ledger"
	"github.com/verte-zerg/pacer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	settingExamDate   = "exam_date"
	settingStartDate  = "start_date"
	settingTotalCoins = "total_coins"
)

var (
	// ErrSubjectNotFound is returned when a subject id is unknown.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrLogNotFound is returned when a log entry does not exist on the given day.
	ErrLogNotFound = errors.New("log entry not found")
	// ErrInvalidSubject is returned for an empty name or a non-positive chapter count.
	ErrInvalidSubject = errors.New("invalid subject")
)

// Store wraps SQLite access for subjects, log entries and coins.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Writers serialize on one connection so a snapshot never sees half a mutation.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			total_chapters INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS log_entries (
			id TEXT NOT NULL,
			date_key TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (date_key, id)
		);`,
		`CREATE TABLE IF NOT EXISTS coins (
			date_key TEXT PRIMARY KEY,
			amount INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_subject ON log_entries(subject_id);`,
		`CREATE INDEX IF NOT EXISTS idx_log_entries_id ON log_entries(id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingStartDate, calendar.DateKey(s.now()))
	return err
}

// withTx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ListSubjects returns subjects in curriculum order.
func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return listSubjects(ctx, s.db)
}

func listSubjects(ctx context.Context, q querier) ([]model.Subject, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, total_chapters FROM subjects ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	subjects := []model.Subject{}
	for rows.Next() {
		var subj model.Subject
		if err := rows.Scan(&subj.ID, &subj.Name, &subj.TotalChapters); err != nil {
			return nil, err
		}
		subjects = append(subjects, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subjects, nil
}

// GetSubject returns one subject by id.
func (s *Store) GetSubject(ctx context.Context, id string) (model.Subject, error) {
	var subj model.Subject
	err := s.db.QueryRowContext(ctx, `SELECT id, name, total_chapters FROM subjects WHERE id = ?`, id).
		Scan(&subj.ID, &subj.Name, &subj.TotalChapters)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	if err != nil {
		return model.Subject{}, err
	}
	return subj, nil
}

// AddSubject appends a subject to the curriculum.
func (s *Store) AddSubject(ctx context.Context, name string, chapters int) (model.Subject, error) {
	subj := model.Subject{ID: uuid.New().String(), Name: strings.TrimSpace(name), TotalChapters: chapters}
	if err := validateSubject(subj); err != nil {
		return model.Subject{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (id, name, total_chapters, position)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM subjects))`,
		subj.ID, subj.Name, subj.TotalChapters)
	if err != nil {
		return model.Subject{}, err
	}
	return subj, nil
}

// EditSubject renames a subject and changes its chapter count.
func (s *Store) EditSubject(ctx context.Context, id, name string, chapters int) (model.Subject, error) {
	subj := model.Subject{ID: id, Name: strings.TrimSpace(name), TotalChapters: chapters}
	if err := validateSubject(subj); err != nil {
		return model.Subject{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE subjects SET name = ?, total_chapters = ? WHERE id = ?`,
		subj.Name, subj.TotalChapters, id)
	if err != nil {
		return model.Subject{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Subject{}, err
	} else if n == 0 {
		return model.Subject{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	}
	return subj, nil
}

// DeleteSubject removes a subject and every log entry that references it.
// Coins already earned are kept.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM log_entries WHERE subject_id = ?`, id)
		return err
	})
}

// ReplaceSubjects swaps the whole curriculum, keeping log entries as they are.
func (s *Store) ReplaceSubjects(ctx context.Context, subjects []model.Subject) ([]model.Subject, error) {
	out := make([]model.Subject, 0, len(subjects))
	for _, subj := range subjects {
		if subj.ID == "" {
			subj.ID = uuid.New().String()
		}
		subj.Name = strings.TrimSpace(subj.Name)
		if err := validateSubject(subj); err != nil {
			return nil, err
		}
		out = append(out, subj)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subjects`); err != nil {
			return err
		}
		return insertSubjects(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertSubjects(ctx context.Context, tx *sql.Tx, subjects []model.Subject) error {
	if len(subjects) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO subjects (id, name, total_chapters, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i, subj := range subjects {
		if _, err := stmt.ExecContext(ctx, subj.ID, subj.Name, subj.TotalChapters, i); err != nil {
			return err
		}
	}
	return nil
}

func validateSubject(subj model.Subject) error {
	if subj.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidSubject)
	}
	if subj.TotalChapters <= 0 {
		return fmt.Errorf("%w: %s must have at least one chapter", ErrInvalidSubject, subj.Name)
	}
	return nil
}

// GetLogs returns every log entry grouped by day.
func (s *Store) GetLogs(ctx context.Context) (model.Logs, error) {
	return getLogs(ctx, s.db)
}

func getLogs(ctx context.Context, q querier) (model.Logs, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, date_key, subject_id, chapter, status, created_at FROM log_entries`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	logs := model.Logs{}
	for rows.Next() {
		var (
			id, dateKey, status, createdAt string
			entry                          model.LogEntry
		)
		if err := rows.Scan(&id, &dateKey, &entry.SubjectID, &entry.ChapterNumber, &status, &createdAt); err != nil {
			return nil, err
		}
		entry.Status = model.Status(status)
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		entry.Timestamp = parsed
		if logs[dateKey] == nil {
			logs[dateKey] = model.DailyLog{}
		}
		logs[dateKey][id] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// LogChapter records a chapter on the given day and credits that day's coins.
// It returns the new log id.
func (s *Store) LogChapter(ctx context.Context, subjectID string, chapter int, status model.Status, dateKey string) (string, error) {
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", status)
	}
	if _, err := calendar.ParseKey(dateKey); err != nil {
		return "", err
	}
	id := uuid.New().String()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM subjects WHERE id = ?`, subjectID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO log_entries (id, date_key, subject_id, chapter, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, dateKey, subjectID, chapter, string(status), s.now().Format(time.RFC3339Nano)); err != nil {
			return err
		}
		return applyCoins(ctx, tx, dateKey, (*ledger.Ledger).Credit)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteLog removes an entry from the day it was logged on and debits that day.
func (s *Store) DeleteLog(ctx context.Context, logID, dateKey string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM log_entries WHERE id = ? AND date_key = ?`, logID, dateKey)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s on %s", ErrLogNotFound, logID, dateKey)
		}
		return applyCoins(ctx, tx, dateKey, (*ledger.Ledger).Debit)
	})
}

// FindLog returns the days holding an entry with the given id.
func (s *Store) FindLog(ctx context.Context, logID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date_key FROM log_entries WHERE id = ? ORDER BY date_key`, logID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var days []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		days = append(days, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, logID)
	}
	return days, nil
}

// applyCoins loads the day's coins and the running total, applies op and
// writes both back inside the caller's transaction.
func applyCoins(ctx context.Context, tx *sql.Tx, dateKey string, op func(*ledger.Ledger, string) int) error {
	var day int
	err := tx.QueryRowContext(ctx, `SELECT amount FROM coins WHERE date_key = ?`, dateKey).Scan(&day)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	total, err := totalCoins(ctx, tx)
	if err != nil {
		return err
	}
	l := ledger.FromDays(map[string]int{dateKey: day}, total)
	op(l, dateKey)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO coins (date_key, amount) VALUES (?, ?)
		 ON CONFLICT(date_key) DO UPDATE SET amount = excluded.amount`, dateKey, l.Day(dateKey)); err != nil {
		return err
	}
	return setSetting(ctx, tx, settingTotalCoins, strconv.Itoa(l.Total))
}

func totalCoins(ctx context.Context, q querier) (int, error) {
	value, ok, err := getSetting(ctx, q, settingTotalCoins)
	if err != nil || !ok {
		return 0, err
	}
	total, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt coin total %q: %w", value, err)
	}
	return total, nil
}

// GetCoins returns the coin ledger.
func (s *Store) GetCoins(ctx context.Context) (*ledger.Ledger, error) {
	return getCoins(ctx, s.db)
}

func getCoins(ctx context.Context, q querier) (*ledger.Ledger, error) {
	rows, err := q.QueryContext(ctx, `SELECT date_key, amount FROM coins`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	days := map[string]int{}
	for rows.Next() {
		var key string
		var amount int
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, err
		}
		days[key] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	total, err := totalCoins(ctx, q)
	if err != nil {
		return nil, err
	}
	return ledger.FromDays(days, total), nil
}

// GetExamDate returns the exam date, or nil when none is set.
func (s *Store) GetExamDate(ctx context.Context) (*time.Time, error) {
	value, ok, err := getSetting(ctx, s.db, settingExamDate)
	if err != nil || !ok {
		return nil, err
	}
	exam, err := calendar.ParseKey(value)
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// SetExamDate stores the exam date; nil clears it.
func (s *Store) SetExamDate(ctx context.Context, exam *time.Time) error {
	if exam == nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, settingExamDate)
		return err
	}
	return setSetting(ctx, s.db, settingExamDate, calendar.DateKey(*exam))
}

func getSetting(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func setSetting(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Snapshot reads the whole store inside one transaction.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		subjects, err := listSubjects(ctx, tx)
		if err != nil {
			return err
		}
		logs, err := getLogs(ctx, tx)
		if err != nil {
			return err
		}
		coins, err := getCoins(ctx, tx)
		if err != nil {
			return err
		}
		exam, hasExam, err := getSetting(ctx, tx, settingExamDate)
		if err != nil {
			return err
		}
		start, _, err := getSetting(ctx, tx, settingStartDate)
		if err != nil {
			return err
		}
		snap = model.Snapshot{
			Version:    model.SnapshotVersion,
			Subjects:   subjects,
			Logs:       logs,
			Coins:      coins.Days,
			TotalCoins: coins.Total,
			StartDate:  start,
		}
		if hasExam {
			snap.ExamDate = &exam
		}
		return nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// Restore replaces everything in the store with the snapshot.
func (s *Store) Restore(ctx context.Context, snap model.Snapshot) error {
	for _, subj := range snap.Subjects {
		if subj.ID == "" {
			return fmt.Errorf("%w: subject %q has no id", ErrInvalidSubject, subj.Name)
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"subjects", "log_entries", "coins"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		if err := insertSubjects(ctx, tx, snap.Subjects); err != nil {
			return err
		}
		for dateKey, day := range snap.Logs {
			for id, entry := range day {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO log_entries (id, date_key, subject_id, chapter, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
					id, dateKey, entry.SubjectID, entry.ChapterNumber, string(entry.Status), entry.Timestamp.Format(time.RFC3339Nano)); err != nil {
					return err
				}
			}
		}
		for dateKey, amount := range snap.Coins {
			if _, err := tx.ExecContext(ctx, `INSERT INTO coins (date_key, amount) VALUES (?, ?)`, dateKey, amount); err != nil {
				return err
			}
		}
		if err := setSetting(ctx, tx, settingTotalCoins, strconv.Itoa(snap.TotalCoins)); err != nil {
			return err
		}
		if snap.ExamDate != nil {
			if err := setSetting(ctx, tx, settingExamDate, *snap.ExamDate); err != nil {
				return err
			}
		} else if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, settingExamDate); err != nil {
			return err
		}
		if snap.StartDate != "" {
			return setSetting(ctx, tx, settingStartDate, snap.StartDate)
		}
		return nil
	})
}

// Reset wipes subjects, log entries and coins. Exam and start dates are kept.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"subjects", "log_entries", "coins"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return setSetting(ctx, tx, settingTotalCoins, "0")
	})
}
