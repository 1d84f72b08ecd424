// Package scheduler contains the post lifecycle engine: stocking approved
// texts, assigning peak-time slots, executing due posts, and reporting.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"postpilot/internal/logger"
	"postpilot/internal/publish"
	"postpilot/internal/schedule"
	"postpilot/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrRecordNotFound is returned when a selector does not match any record.
var ErrRecordNotFound = errors.New("record not found")

// ErrNotPending is returned when an operation targets a record that has
// already reached a terminal status.
var ErrNotPending = errors.New("record is not pending")

// Config holds tunables for the engine.
type Config struct {
	// Slots is the daily slot table (default: schedule.DefaultTable).
	Slots schedule.Table

	// PollInterval is the delay between continuous-mode passes (default: 1m).
	PollInterval time.Duration

	// SummaryLimit is how many upcoming posts a summary previews (default: 3).
	SummaryLimit int
}

// Engine drives post records through their lifecycle. It assumes a single
// active writer: every mutating operation is a full load-mutate-save cycle
// under one mutex, which is what makes the store's atomic replace-on-save
// sufficient for durability.
type Engine struct {
	mu        sync.Mutex
	store     store.Store
	publisher publish.Publisher // nil means no publisher configured
	slots     schedule.Table
	log       *slog.Logger

	pollInterval time.Duration
	summaryLimit int

	// now is swapped out in tests for deterministic clocks.
	now func() time.Time

	stockedCounter metric.Int64Counter
	attemptCounter metric.Int64Counter
}

// New creates a lifecycle engine. publisher may be nil; due records then
// finish as no_publisher instead of being attempted.
func New(s store.Store, publisher publish.Publisher, log *slog.Logger, cfg Config) *Engine {
	if cfg.Slots == nil {
		cfg.Slots = schedule.DefaultTable()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.SummaryLimit <= 0 {
		cfg.SummaryLimit = 3
	}

	meter := otel.Meter("postpilot/scheduler")
	stocked, err := meter.Int64Counter("postpilot_posts_stocked_total",
		metric.WithDescription("Post records added to the stock"))
	if err != nil {
		log.Warn("failed to create stocked counter", "error", err)
	}
	attempts, err := meter.Int64Counter("postpilot_post_attempts_total",
		metric.WithDescription("Execution attempts by outcome"))
	if err != nil {
		log.Warn("failed to create attempt counter", "error", err)
	}

	return &Engine{
		store:          s,
		publisher:      publisher,
		slots:          cfg.Slots,
		log:            log,
		pollInterval:   cfg.PollInterval,
		summaryLimit:   cfg.SummaryLimit,
		now:            time.Now,
		stockedCounter: stocked,
		attemptCounter: attempts,
	}
}

// Stock appends one pending record per text, in input order, and persists.
// No validation beyond what the approval step already performed.
func (e *Engine) Stock(ctx context.Context, texts []string) ([]store.PostRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	created := make([]store.PostRecord, 0, len(texts))
	for _, text := range texts {
		rec := store.PostRecord{
			ID:        uuid.New(),
			Text:      text,
			Status:    store.StatusPending,
			CreatedAt: now,
		}
		records = append(records, rec)
		created = append(created, rec)
	}

	if err := e.store.Save(ctx, records); err != nil {
		return nil, err
	}

	if e.stockedCounter != nil {
		e.stockedCounter.Add(ctx, int64(len(created)))
	}
	logger.FromContext(ctx, e.log).Info("stocked posts", "added", len(created), "total", len(records))
	return created, nil
}

// AssignSlots gives every unassigned pending record, in store order, the
// next slot from the table, computed as that slot's next occurrence from
// now. Already-assigned records are never touched, so the operation is
// idempotent. Records beyond the table's capacity stay unassigned for a
// later pass. Returns the number of records assigned.
func (e *Engine) AssignSlots(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	var unassigned []*store.PostRecord
	for i := range records {
		if records[i].Status == store.StatusPending && records[i].ScheduledTime == nil {
			unassigned = append(unassigned, &records[i])
		}
	}

	now := e.now()
	slots := e.slots.First(len(unassigned))
	for i, slot := range slots {
		t, err := schedule.NextOccurrence(slot.TimeOfDay, now)
		if err != nil {
			return 0, fmt.Errorf("slot %d: %w", i, err)
		}
		unassigned[i].ScheduledTime = &t
		unassigned[i].Period = slot.Period
	}

	if len(slots) == 0 {
		return 0, nil
	}

	if err := e.store.Save(ctx, records); err != nil {
		return 0, err
	}
	logger.FromContext(ctx, e.log).Info("assigned slots", "assigned", len(slots), "unassigned", len(unassigned)-len(slots))
	return len(slots), nil
}

// Result is the outcome of one execution attempt.
type Result struct {
	RecordID  uuid.UUID
	Text      string
	Status    store.Status
	PublishID string
	Err       string
}

func (r Result) outcome() string {
	switch r.Status {
	case store.StatusPosted:
		return fmt.Sprintf("posted id=%s", r.PublishID)
	case store.StatusFailed:
		return fmt.Sprintf("failed: %s", r.Err)
	default:
		return string(r.Status)
	}
}

// ExecuteDue makes exactly one attempt for every due record, sequentially
// and in store order. A failing publish marks that record failed and moves
// on; the rest of the batch is still attempted. The full store is persisted
// and one history entry appended per attempt, dry-run and no-publisher
// outcomes included. An empty due set is a normal, empty result.
func (e *Engine) ExecuteDue(ctx context.Context, dryRun bool) ([]Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tracer := otel.Tracer("postpilot/scheduler")
	ctx, span := tracer.Start(ctx, "execute_due",
		trace.WithAttributes(attribute.Bool("dry_run", dryRun)))
	defer span.End()

	records, err := e.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := e.now()
	var results []Result
	var history []store.HistoryEntry

	for i := range records {
		rec := &records[i]
		if !rec.Due(now) {
			continue
		}
		res := e.attempt(ctx, rec, now, dryRun)
		results = append(results, res)
		history = append(history, store.HistoryEntry{
			Text:      rec.Text,
			Timestamp: now,
			Result:    res.outcome(),
		})
		if e.attemptCounter != nil {
			e.attemptCounter.Add(ctx, 1,
				metric.WithAttributes(attribute.String("outcome", string(res.Status))))
		}
	}

	span.SetAttributes(attribute.Int("due_count", len(results)))
	if len(results) == 0 {
		return nil, nil
	}

	if err := e.store.Save(ctx, records); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := e.store.AppendHistory(ctx, history); err != nil {
		span.RecordError(err)
		return results, fmt.Errorf("append history: %w", err)
	}
	return results, nil
}

// attempt transitions a single due record to its terminal status. The
// record is pending by construction, so transitions cannot fail; any error
// here indicates a bug in due-detection.
func (e *Engine) attempt(ctx context.Context, rec *store.PostRecord, now time.Time, dryRun bool) Result {
	log := logger.FromContext(ctx, e.log).With("record_id", rec.ID)

	res := Result{RecordID: rec.ID, Text: rec.Text}

	switch {
	case dryRun:
		if err := rec.Transition(store.StatusDryRun); err != nil {
			log.Error("transition rejected", "error", err)
		}
		log.Info("dry run, publish skipped", "text", truncate(rec.Text, 50))

	case e.publisher == nil:
		if err := rec.Transition(store.StatusNoPublisher); err != nil {
			log.Error("transition rejected", "error", err)
		}
		log.Warn("no publisher configured, post not attempted")

	default:
		id, err := e.publisher.Publish(ctx, rec.Text, "")
		if err != nil {
			if terr := rec.Transition(store.StatusFailed); terr != nil {
				log.Error("transition rejected", "error", terr)
			}
			rec.Error = err.Error()
			log.Error("publish failed", "error", err)
		} else {
			if terr := rec.Transition(store.StatusPosted); terr != nil {
				log.Error("transition rejected", "error", terr)
			}
			postedAt := now
			rec.PostedAt = &postedAt
			rec.PublishID = id
			log.Info("posted", "publish_id", id, "text", truncate(rec.Text, 50))
		}
	}

	res.Status = rec.Status
	res.PublishID = rec.PublishID
	res.Err = rec.Error
	return res
}

// RunContinuous executes due posts in a loop until ctx is cancelled. Each
// pass runs to completion and persists before the poll delay begins;
// cancellation is only observed at the delay boundary, so no record is ever
// left mid-transition. Store errors are fatal and stop the loop.
func (e *Engine) RunContinuous(ctx context.Context, dryRun bool) error {
	e.log.Info("scheduler loop started", "poll_interval", e.pollInterval, "dry_run", dryRun)

	for {
		passCtx := logger.WithRunID(context.WithoutCancel(ctx), uuid.NewString())
		results, err := e.ExecuteDue(passCtx, dryRun)
		if err != nil {
			return fmt.Errorf("execution pass: %w", err)
		}
		if len(results) > 0 {
			logger.FromContext(passCtx, e.log).Info("pass complete", "attempted", len(results))
		}

		select {
		case <-ctx.Done():
			e.log.Info("scheduler loop stopped")
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// ForceImmediate rewrites one pending record's scheduled time to the past
// so the next pass picks it up. Other records are untouched.
func (e *Engine) ForceImmediate(ctx context.Context, id uuid.UUID) error {
	_, err := e.forcePast(ctx, func(r *store.PostRecord) bool { return r.ID == id }, true)
	return err
}

// ForceImmediateAll forces every pending record due. Returns the number of
// records rewritten.
func (e *Engine) ForceImmediateAll(ctx context.Context) (int, error) {
	return e.forcePast(ctx, func(r *store.PostRecord) bool { return true }, false)
}

func (e *Engine) forcePast(ctx context.Context, match func(*store.PostRecord) bool, single bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	now := e.now()
	past := now.Add(-time.Minute)
	forced := 0
	matched := false
	for i := range records {
		rec := &records[i]
		if !match(rec) {
			continue
		}
		matched = true
		if rec.Status != store.StatusPending {
			if single {
				return 0, fmt.Errorf("%w: %s is %s", ErrNotPending, rec.ID, rec.Status)
			}
			continue
		}
		t := past
		rec.ScheduledTime = &t
		forced++
		if single {
			break
		}
	}

	if single && !matched {
		return 0, ErrRecordNotFound
	}
	if forced == 0 {
		return 0, nil
	}

	if err := e.store.Save(ctx, records); err != nil {
		return 0, err
	}
	logger.FromContext(ctx, e.log).Info("forced records due", "count", forced)
	return forced, nil
}

// ClearCompleted removes every record that reached a terminal status,
// preserving pending records and their order. Returns the number removed.
func (e *Engine) ClearCompleted(ctx context.Context) (int, error) {
	return e.clear(ctx, func(r *store.PostRecord) bool { return r.Status != store.StatusPending })
}

// ClearPending drops records still waiting to post, keeping terminal ones
// for the audit trail. Maintenance escape hatch for discarding a bad batch.
func (e *Engine) ClearPending(ctx context.Context) (int, error) {
	return e.clear(ctx, func(r *store.PostRecord) bool { return r.Status == store.StatusPending })
}

func (e *Engine) clear(ctx context.Context, drop func(*store.PostRecord) bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	remaining := records[:0:0]
	for _, rec := range records {
		if !drop(&rec) {
			remaining = append(remaining, rec)
		}
	}

	removed := len(records) - len(remaining)
	if removed == 0 {
		return 0, nil
	}

	if err := e.store.Save(ctx, remaining); err != nil {
		return 0, err
	}
	logger.FromContext(ctx, e.log).Info("cleared records", "removed", removed, "remaining", len(remaining))
	return removed, nil
}

// Summary is a read-only projection over the store.
type Summary struct {
	Counts map[store.Status]int
	Total  int

	// Upcoming holds the soonest pending records that have a scheduled
	// time, ordered by scheduled time ascending, ties broken by store order.
	Upcoming []store.PostRecord
}

// Summarize reports counts per status and the next scheduled posts. It
// never mutates the store.
func (e *Engine) Summarize(ctx context.Context) (*Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Counts: make(map[store.Status]int),
		Total:  len(records),
	}

	var withTime []store.PostRecord
	for _, rec := range records {
		sum.Counts[rec.Status]++
		if rec.Status == store.StatusPending && rec.ScheduledTime != nil {
			withTime = append(withTime, rec)
		}
	}

	sort.SliceStable(withTime, func(i, j int) bool {
		return withTime[i].ScheduledTime.Before(*withTime[j].ScheduledTime)
	})
	if len(withTime) > e.summaryLimit {
		withTime = withTime[:e.summaryLimit]
	}
	sum.Upcoming = withTime

	return sum, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
