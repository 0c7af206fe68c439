// Package export reads and writes the versioned JSON backup document.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/pacer/internal/calendar"
	"github.com/verte-zerg/pacer/internal/ledger"
	"github.com/verte-zerg/pacer/internal/model"
)

var (
	// ErrUnsupportedVersion is returned for documents of another version.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	// ErrCoinMismatch is returned when totalCoins disagrees with the per-day coins.
	ErrCoinMismatch = errors.New("coin total does not match per-day coins")
)

// Encode writes the snapshot as indented JSON.
func Encode(w io.Writer, snap model.Snapshot) error {
	snap = normalize(snap)
	snap.Version = model.SnapshotVersion
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Decode reads and validates a backup document.
func Decode(r io.Reader) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	if snap.Version != model.SnapshotVersion {
		return model.Snapshot{}, fmt.Errorf("%w: %q (want %q)", ErrUnsupportedVersion, snap.Version, model.SnapshotVersion)
	}
	snap = normalize(snap)
	if err := validate(snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// DefaultFileName names a backup taken at now.
func DefaultFileName(now time.Time) string {
	return fmt.Sprintf("pacer-backup-%s.json", now.Format("20060102"))
}

func normalize(snap model.Snapshot) model.Snapshot {
	if snap.Subjects == nil {
		snap.Subjects = []model.Subject{}
	}
	if snap.Logs == nil {
		snap.Logs = model.Logs{}
	}
	if snap.Coins == nil {
		snap.Coins = map[string]int{}
	}
	return snap
}

func validate(snap model.Snapshot) error {
	for _, subj := range snap.Subjects {
		if subj.ID == "" {
			return fmt.Errorf("subject %q has no id", subj.Name)
		}
	}
	for dateKey, day := range snap.Logs {
		if _, err := calendar.ParseKey(dateKey); err != nil {
			return fmt.Errorf("log day: %w", err)
		}
		for id, entry := range day {
			if !entry.Status.Valid() {
				return fmt.Errorf("log %s on %s: unknown status %q", id, dateKey, entry.Status)
			}
		}
	}
	if snap.ExamDate != nil {
		if _, err := calendar.ParseKey(*snap.ExamDate); err != nil {
			return fmt.Errorf("exam date: %w", err)
		}
	}
	coins := ledger.FromDays(snap.Coins, snap.TotalCoins)
	if !coins.Balanced() {
		return fmt.Errorf("%w: total %d, days sum to %d", ErrCoinMismatch, snap.TotalCoins, coins.Sum())
	}
	return nil
}
