// Package report aggregates fetch outcomes into a run summary. A single
// owning goroutine receives outcomes over a channel, so the tallies need no
// shared mutable counters across workers.
package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// OutcomeStore persists individual outcomes for downstream auditing.
type OutcomeStore interface {
	RecordOutcome(ctx context.Context, runID uuid.UUID, outcome compound.FetchOutcome) error
}

// Publisher pushes per-outcome completion events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Config controls Reporter behavior.
type Config struct {
	// Total is the number of identifiers submitted to the run, used for the
	// running progress indicator.
	Total int
	// Topic, when set together with a Publisher, receives one event per
	// outcome.
	Topic string
	// SideEffectTimeout bounds each store insert and publish call.
	SideEffectTimeout time.Duration
}

// Progress is a point-in-time snapshot of the run, served to operators
// watching for stalls.
type Progress struct {
	RunID     uuid.UUID     `json:"run_id"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Reporter accumulates outcomes as they arrive, in any order. Observe may be
// called from any worker; all accounting happens on the reporter's own
// goroutine. Close drains the channel and finalizes the summary.
type Reporter struct {
	cfg       Config
	runID     uuid.UUID
	clock     compound.Clock
	store     OutcomeStore
	publisher Publisher
	logger    *zap.Logger

	outcomes chan compound.FetchOutcome
	done     chan struct{}
	started  time.Time

	mu        sync.Mutex
	processed int
	succeeded int
	failed    int
	closeOnce sync.Once
}

// New creates a Reporter and starts its aggregation goroutine. Store and
// publisher may be nil.
func New(cfg Config, clock compound.Clock, store OutcomeStore, publisher Publisher, logger *zap.Logger) *Reporter {
	if clock == nil {
		clock = compound.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 10 * time.Second
	}
	r := &Reporter{
		cfg:       cfg,
		runID:     uuid.New(),
		clock:     clock,
		store:     store,
		publisher: publisher,
		logger:    logger,
		outcomes:  make(chan compound.FetchOutcome, 64),
		done:      make(chan struct{}),
		started:   clock.Now(),
	}
	go r.run()
	return r
}

// RunID identifies this run on summaries, outcome rows, and events.
func (r *Reporter) RunID() uuid.UUID {
	return r.runID
}

// Observe enqueues one outcome for accounting.
func (r *Reporter) Observe(outcome compound.FetchOutcome) {
	r.outcomes <- outcome
}

// Snapshot returns the current progress counters.
func (r *Reporter) Snapshot() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Progress{
		RunID:     r.runID,
		Total:     r.cfg.Total,
		Processed: r.processed,
		Succeeded: r.succeeded,
		Failed:    r.failed,
		Elapsed:   r.clock.Now().Sub(r.started),
	}
}

// Close stops accepting outcomes, waits for the aggregation goroutine to
// drain, and returns the final summary. Safe to call once per run.
func (r *Reporter) Close() compound.RunSummary {
	r.closeOnce.Do(func() {
		close(r.outcomes)
	})
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	return compound.RunSummary{
		RunID:     r.runID,
		Total:     r.processed,
		Succeeded: r.succeeded,
		Failed:    r.failed,
		Elapsed:   r.clock.Now().Sub(r.started),
	}
}

func (r *Reporter) run() {
	defer close(r.done)
	for outcome := range r.outcomes {
		r.record(outcome)
	}
}

func (r *Reporter) record(outcome compound.FetchOutcome) {
	r.mu.Lock()
	r.processed++
	if outcome.Status.Failed() {
		r.failed++
	} else {
		r.succeeded++
	}
	processed, succeeded, failed := r.processed, r.succeeded, r.failed
	r.mu.Unlock()

	metrics.ObserveDownload(string(outcome.Status), outcome.BytesWritten, outcome.Duration)
	r.logger.Info("progress",
		zap.Int("processed", processed),
		zap.Int("total", r.cfg.Total),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.String("id", outcome.ID),
		zap.String("status", string(outcome.Status)),
		zap.Int("attempts", outcome.Attempts),
	)

	r.persist(outcome)
	r.publish(outcome)
}

func (r *Reporter) persist(outcome compound.FetchOutcome) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SideEffectTimeout)
	defer cancel()
	if err := r.store.RecordOutcome(ctx, r.runID, outcome); err != nil {
		r.logger.Warn("outcome store insert failed", zap.String("id", outcome.ID), zap.Error(err))
	}
}

func (r *Reporter) publish(outcome compound.FetchOutcome) {
	if r.publisher == nil || r.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":        r.runID.String(),
		"id":            outcome.ID,
		"status":        string(outcome.Status),
		"bytes_written": outcome.BytesWritten,
		"attempts":      outcome.Attempts,
		"timestamp":     r.clock.Now().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SideEffectTimeout)
	defer cancel()
	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, payload); err != nil {
		r.logger.Warn("outcome publish failed", zap.String("id", outcome.ID), zap.Error(err))
	}
}

// FormatSummary renders the human-readable tally logged at the end of a run.
func FormatSummary(s compound.RunSummary) string {
	return fmt.Sprintf("Download Results: %d successful, %d failed", s.Succeeded, s.Failed)
}
