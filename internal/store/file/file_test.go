package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"postpilot/internal/store"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty collection, got %d records", len(records))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scheduled := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
	posted := time.Date(2024, 1, 2, 7, 0, 30, 0, time.UTC)
	records := []store.PostRecord{
		{
			ID:        uuid.New(),
			Text:      "first post",
			Status:    store.StatusPending,
			CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:            uuid.New(),
			Text:          "second post",
			Status:        store.StatusPosted,
			CreatedAt:     time.Date(2024, 1, 1, 10, 0, 1, 0, time.UTC),
			ScheduledTime: &scheduled,
			Period:        "morning",
			PostedAt:      &posted,
			PublishID:     "18273645",
		},
		{
			ID:        uuid.New(),
			Text:      "third post",
			Status:    store.StatusFailed,
			CreatedAt: time.Date(2024, 1, 1, 10, 0, 2, 0, time.UTC),
			Error:     "api returned status 403",
		},
	}

	if err := s.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(loaded))
	}

	for i, want := range records {
		got := loaded[i]
		if got.ID != want.ID || got.Text != want.Text || got.Status != want.Status {
			t.Errorf("record %d mismatch: got %+v, want %+v", i, got, want)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("record %d created_at: got %v, want %v", i, got.CreatedAt, want.CreatedAt)
		}
		if (got.ScheduledTime == nil) != (want.ScheduledTime == nil) {
			t.Errorf("record %d scheduled_time presence mismatch", i)
		} else if got.ScheduledTime != nil && !got.ScheduledTime.Equal(*want.ScheduledTime) {
			t.Errorf("record %d scheduled_time: got %v, want %v", i, got.ScheduledTime, want.ScheduledTime)
		}
		if got.Period != want.Period || got.PublishID != want.PublishID || got.Error != want.Error {
			t.Errorf("record %d field mismatch: got %+v, want %+v", i, got, want)
		}
	}
}

func TestLoad_MalformedFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "scheduled.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := s.Load(context.Background()); err == nil {
		t.Error("expected error for malformed file")
	}

	// The corrupt file must survive untouched; no silent overwrite.
	data, err := os.ReadFile(filepath.Join(dir, "scheduled.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "{not json" {
		t.Error("corrupt file was modified")
	}
}

func TestSave_ProducesParseableFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	records := []store.PostRecord{{ID: uuid.New(), Text: "post", Status: store.StatusPending, CreatedAt: time.Now()}}
	if err := s.Save(context.Background(), records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "scheduled.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var out []store.PostRecord
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "scheduled.json" {
			t.Errorf("unexpected leftover file: %s", e.Name())
		}
	}
}

func TestSave_NilBecomesEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	records, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty collection, got %d", len(records))
	}
}

func TestAppendHistory_Accumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []store.HistoryEntry{
		{Text: "one", Timestamp: time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC), Result: "posted id=1"},
	}
	second := []store.HistoryEntry{
		{Text: "two", Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), Result: "failed: boom"},
		{Text: "three", Timestamp: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Result: "dry_run"},
	}

	if err := s.AppendHistory(ctx, first); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := s.AppendHistory(ctx, second); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	history, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Text != "one" || history[1].Text != "two" || history[2].Text != "three" {
		t.Errorf("history out of order: %+v", history)
	}
}

func TestAppendHistory_EmptyIsNoop(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.AppendHistory(context.Background(), nil); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "post_history.json")); !os.IsNotExist(err) {
		t.Error("expected no history file for empty append")
	}
}
