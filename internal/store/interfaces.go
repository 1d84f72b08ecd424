package store

import "context"

// Store handles the persistence of post records and the execution history.
//
// The record collection is read-modify-written as a whole: Load the full
// sequence, mutate in memory, Save the full sequence. Implementations must
// make Save atomic from a reader's perspective (no partial writes visible),
// and must treat a missing backing file as an empty collection rather than
// an error. A backing file that exists but cannot be parsed is a fatal
// condition and must be surfaced, never overwritten.
type Store interface {
	// Load returns all post records in insertion order.
	Load(ctx context.Context) ([]PostRecord, error)

	// Save replaces the full persisted record collection.
	Save(ctx context.Context, records []PostRecord) error

	// AppendHistory adds entries to the audit log without disturbing
	// existing entries.
	AppendHistory(ctx context.Context, entries []HistoryEntry) error

	// LoadHistory returns the full audit log, oldest first.
	LoadHistory(ctx context.Context) ([]HistoryEntry, error)
}
