// Package file implements store.Store on top of local JSON files.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"postpilot/internal/store"
)

const (
	recordsFile = "scheduled.json"
	historyFile = "post_history.json"
)

// Store persists records and history as JSON files under a data directory.
//
// Saves go through a temp file followed by an atomic rename, so a crash
// mid-write never leaves a truncated file behind.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a file store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Load returns all post records. A missing file is an empty collection, not
// an error; a malformed file is surfaced so it is never silently overwritten.
func (s *Store) Load(ctx context.Context) ([]store.PostRecord, error) {
	var records []store.PostRecord
	if err := s.read(recordsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Save replaces the full record collection atomically.
func (s *Store) Save(ctx context.Context, records []store.PostRecord) error {
	if records == nil {
		records = []store.PostRecord{}
	}
	return s.write(recordsFile, records)
}

// AppendHistory adds entries to the audit log. Existing entries are never
// mutated or dropped.
func (s *Store) AppendHistory(ctx context.Context, entries []store.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	var history []store.HistoryEntry
	if err := s.read(historyFile, &history); err != nil {
		return err
	}
	history = append(history, entries...)
	return s.write(historyFile, history)
}

// LoadHistory returns the full audit log, oldest first.
func (s *Store) LoadHistory(ctx context.Context) ([]store.HistoryEntry, error) {
	var history []store.HistoryEntry
	if err := s.read(historyFile, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Store) read(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
