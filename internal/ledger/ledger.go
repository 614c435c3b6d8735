// Package ledger is the durable, append-only record of alerts: an in-memory
// ordered sequence backed by a JSON file. The file has no partial-append
// primitive, so every append rewrites the full snapshot atomically via a
// temporary file and rename. Readers of the file never observe a half-written
// snapshot, and the in-memory view never runs ahead of the flushed file.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/lightning-alert-service/internal/domain"
)

// Ledger holds the ordered alert sequence and its (location, day) dedup index.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	records []domain.AlertRecord
	alerted map[dedupKey]struct{}
}

type dedupKey struct {
	location string
	day      domain.Day
}

// Open loads the ledger file at path. A missing or unreadable file is a cold
// start, not an error: the ledger initializes empty and the condition is
// logged.
func Open(path string, logger *slog.Logger) *Ledger {
	l := &Ledger{
		path:    path,
		logger:  logger,
		alerted: make(map[dedupKey]struct{}),
	}
	l.load()
	return l
}

func (l *Ledger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("no existing alert ledger, starting empty", "path", l.path)
		} else {
			l.logger.Warn("alert ledger unreadable, starting empty", "path", l.path, "error", err)
		}
		return
	}

	var records []domain.AlertRecord
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.Warn("alert ledger corrupt, starting empty", "path", l.path, "error", err)
		return
	}

	l.records = records
	for _, rec := range records {
		l.index(rec)
	}
	l.logger.Info("alert ledger loaded", "path", l.path, "alerts", len(records))
}

// Append assigns the next alert number, flushes the full snapshot to disk,
// and only then publishes the record to the in-memory view. On a flush error
// the ledger is unchanged and the alert is lost, which callers treat as a
// non-fatal, logged condition.
func (l *Ledger) Append(rec domain.AlertRecord) (domain.AlertRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.Number = len(l.records) + 1
	snapshot := make([]domain.AlertRecord, len(l.records), len(l.records)+1)
	copy(snapshot, l.records)
	snapshot = append(snapshot, rec)

	if err := l.flush(snapshot); err != nil {
		return domain.AlertRecord{}, fmt.Errorf("flush alert ledger: %w", err)
	}

	l.records = snapshot
	l.index(rec)
	return rec, nil
}

// flush writes the complete snapshot to a temporary file in the ledger's
// directory and renames it over the target, so concurrent readers see either
// the old file or the new one, never a partial write.
func (l *Ledger) flush(records []domain.AlertRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (l *Ledger) index(rec domain.AlertRecord) {
	day, ok := domain.ParseDay(rec.Timestamp)
	if !ok {
		return
	}
	for _, name := range rec.Cities {
		l.alerted[dedupKey{location: name, day: day}] = struct{}{}
	}
}

// HasAlertedOn reports whether any recorded alert already lists the location
// on the given UTC calendar day.
func (l *Ledger) HasAlertedOn(location string, day domain.Day) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.alerted[dedupKey{location: location, day: day}]
	return ok
}

// Records returns a copy of the current alert sequence in append order.
func (l *Ledger) Records() []domain.AlertRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AlertRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of recorded alerts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
