// Package store holds the client-side state for receipt submissions:
// the job tracker that polls one submission to a terminal outcome, the
// paginated archive collection, the statistics cache, and the facade
// that composes them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// Job is a snapshot of the tracked submission.
type Job struct {
	DocumentID string
	Phase      constants.JobPhase
	Ticks      int
	Document   *entity.Document
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Tracker drives one submission from upload to a terminal phase with a
// bounded polling loop. At most one polling loop is live at a time; a
// new Submit stops the previous session first, and results from checks
// that were in flight when a session ended are discarded.
type Tracker struct {
	backend api.Backend
	clock   Clock
	log     *slog.Logger

	pollInterval time.Duration
	maxPollTicks int
	onTerminal   func(Job)

	mu         sync.Mutex
	gen        uint64
	phase      constants.JobPhase
	documentID string
	ticks      int
	doc        *entity.Document
	err        error
	startedAt  time.Time
	finishedAt time.Time
	stopRun    context.CancelFunc

	updates chan struct{}
}

type TrackerOption func(*Tracker)

// WithClock swaps the wall clock for a test clock.
func WithClock(c Clock) TrackerOption {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

func WithPollInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

func WithMaxPollTicks(n int) TrackerOption {
	return func(t *Tracker) {
		if n > 0 {
			t.maxPollTicks = n
		}
	}
}

// WithOnTerminal registers fn to run after each polling session ends in
// a terminal phase. fn receives a snapshot and runs on the polling
// goroutine, outside the tracker lock.
func WithOnTerminal(fn func(Job)) TrackerOption {
	return func(t *Tracker) {
		t.onTerminal = fn
	}
}

func NewTracker(backend api.Backend, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		backend:      backend,
		clock:        realClock{},
		log:          logger,
		pollInterval: 2 * time.Second,
		maxPollTicks: 30,
		phase:        constants.PhaseIdle,
		updates:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Updates signals after every phase or tick change. The channel
// coalesces bursts; consumers read the current state via Snapshot.
func (t *Tracker) Updates() <-chan struct{} { return t.updates }

// Snapshot returns a copy of the tracked job.
func (t *Tracker) Snapshot() Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Submit uploads the receipt and starts polling its status. The upload
// itself is synchronous; polling continues in the background until a
// terminal phase, cancellation, or the tick budget runs out. A rejected
// upload returns the tracker to idle with the failure recorded.
func (t *Tracker) Submit(ctx context.Context, upload entity.Upload) (string, error) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	if t.stopRun != nil {
		t.stopRun()
		t.stopRun = nil
	}
	t.phase = constants.PhaseUploading
	t.documentID = ""
	t.ticks = 0
	t.doc = nil
	t.err = nil
	t.startedAt = t.clock.Now()
	t.finishedAt = time.Time{}
	t.mu.Unlock()
	t.notify()

	t.log.Info("tracker.submit.start", "filename", upload.Filename, "bytes", upload.FileSize)

	id, err := t.backend.SubmitDocument(ctx, upload)
	if err != nil {
		if !errors.Is(err, common.ErrUploadRejected) {
			err = fmt.Errorf("%w: %v", common.ErrUploadRejected, err)
		}
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return "", err
		}
		t.phase = constants.PhaseIdle
		t.err = err
		t.finishedAt = t.clock.Now()
		t.mu.Unlock()
		t.notify()
		t.log.Error("tracker.submit.rejected", "error", err)
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		cancel()
		t.log.Info("tracker.submit.superseded", "document_id", id)
		return id, nil
	}
	t.phase = constants.PhasePolling
	t.documentID = id
	t.stopRun = cancel
	t.mu.Unlock()
	t.notify()

	t.log.Info("tracker.poll.start",
		"document_id", id,
		"interval", t.pollInterval,
		"max_ticks", t.maxPollTicks,
	)
	go t.run(runCtx, gen, id)
	return id, nil
}

// Retry re-submits a failed or timed-out session for processing and
// restarts polling with a fresh tick budget.
func (t *Tracker) Retry(ctx context.Context) error {
	t.mu.Lock()
	if !t.phase.Retryable() {
		phase := t.phase
		t.mu.Unlock()
		return fmt.Errorf("%w: cannot retry from phase %s", common.ErrInvalidInput, phase)
	}
	id := t.documentID
	if id == "" {
		t.mu.Unlock()
		return fmt.Errorf("%w: no submission to retry", common.ErrInvalidInput)
	}
	t.gen++
	gen := t.gen
	t.phase = constants.PhaseUploading
	t.ticks = 0
	t.doc = nil
	t.err = nil
	t.startedAt = t.clock.Now()
	t.finishedAt = time.Time{}
	t.mu.Unlock()
	t.notify()

	t.log.Info("tracker.retry.start", "document_id", id)

	if err := t.backend.RetryJob(ctx, id); err != nil {
		err = fmt.Errorf("%w: retry: %v", common.ErrProcessingFailed, err)
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return err
		}
		t.phase = constants.PhaseFailed
		t.err = err
		t.finishedAt = t.clock.Now()
		t.mu.Unlock()
		t.notify()
		t.log.Error("tracker.retry.failed", "document_id", id, "error", err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		cancel()
		return nil
	}
	t.phase = constants.PhasePolling
	t.stopRun = cancel
	t.mu.Unlock()
	t.notify()

	go t.run(runCtx, gen, id)
	return nil
}

// Cancel stops any active polling loop without contacting the backend.
// Idempotent; safe to call when nothing is being tracked. A check
// already in flight completes but its result is discarded.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	if !t.phase.Active() {
		t.mu.Unlock()
		return
	}
	t.gen++
	stop := t.stopRun
	t.stopRun = nil
	t.phase = constants.PhaseIdle
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
	t.notify()
	t.log.Info("tracker.poll.cancelled")
}

// Reset cancels tracking and returns the tracker to its initial state,
// dropping the retained document and error.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.gen++
	stop := t.stopRun
	t.stopRun = nil
	t.phase = constants.PhaseIdle
	t.documentID = ""
	t.ticks = 0
	t.doc = nil
	t.err = nil
	t.startedAt = time.Time{}
	t.finishedAt = time.Time{}
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
	t.notify()
}

// run issues sequential status checks. The first fires immediately; the
// next delay is armed only after the previous check returns, so checks
// never overlap.
func (t *Tracker) run(ctx context.Context, gen uint64, id string) {
	for {
		if !t.current(gen) {
			return
		}

		check, err := t.backend.CheckJob(ctx, id)
		if t.applyCheck(ctx, gen, id, check, err) {
			return
		}

		select {
		case <-t.clock.After(t.pollInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}

// applyCheck consumes one tick and reports whether polling must stop.
// Stale generations are discarded without touching state.
func (t *Tracker) applyCheck(ctx context.Context, gen uint64, id string, check api.JobCheck, checkErr error) bool {
	if checkErr != nil {
		// one bad tick ends the session; retry is a deliberate user action
		return t.finish(gen, id, constants.PhaseFailed, nil,
			fmt.Errorf("%w: %v", common.ErrProcessingFailed, checkErr))
	}

	switch check.Status {
	case constants.DocumentReview, constants.DocumentApproved:
		doc, err := t.backend.FetchDocument(ctx, id)
		if err != nil {
			return t.finish(gen, id, constants.PhaseFailed, nil,
				fmt.Errorf("%w: %v", common.ErrProcessingFailed, err))
		}
		return t.finish(gen, id, constants.PhaseResolved, &doc, nil)

	case constants.DocumentFailed:
		msg := check.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return t.finish(gen, id, constants.PhaseFailed, nil,
			fmt.Errorf("%w: %s", common.ErrProcessingFailed, msg))

	case constants.DocumentDuplicate:
		// the existing record stays visible alongside the duplicate error
		var docPtr *entity.Document
		if doc, err := t.backend.FetchDocument(ctx, id); err == nil {
			docPtr = &doc
		}
		msg := check.Message
		if msg == "" {
			msg = "receipt already archived"
		}
		return t.finish(gen, id, constants.PhaseDuplicate, docPtr,
			fmt.Errorf("%w: %s", common.ErrDuplicateDetected, msg))
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return true
	}
	t.ticks++
	if t.ticks >= t.maxPollTicks {
		t.phase = constants.PhaseTimedOut
		t.err = fmt.Errorf("%w: no terminal status after %d checks", common.ErrProcessingTimedOut, t.ticks)
		t.finishedAt = t.clock.Now()
		t.stopRun = nil
		job := t.snapshotLocked()
		t.mu.Unlock()
		t.notify()
		t.log.Warn("tracker.poll.timeout", "document_id", id, "ticks", job.Ticks)
		if t.onTerminal != nil {
			t.onTerminal(job)
		}
		return true
	}
	ticks := t.ticks
	t.mu.Unlock()
	t.notify()
	t.log.Debug("tracker.poll.tick", "document_id", id, "tick", ticks)
	return false
}

// finish records a terminal outcome for the given generation. It
// reports true either way so the loop stops; stale results are dropped.
func (t *Tracker) finish(gen uint64, id string, phase constants.JobPhase, doc *entity.Document, err error) bool {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return true
	}
	t.ticks++
	t.phase = phase
	t.doc = doc
	t.err = err
	t.finishedAt = t.clock.Now()
	t.stopRun = nil
	job := t.snapshotLocked()
	t.mu.Unlock()
	t.notify()

	if err != nil {
		t.log.Warn("tracker.poll.terminal", "document_id", id, "phase", phase, "ticks", job.Ticks, "error", err)
	} else {
		t.log.Info("tracker.poll.terminal", "document_id", id, "phase", phase, "ticks", job.Ticks)
	}
	if t.onTerminal != nil {
		t.onTerminal(job)
	}
	return true
}

func (t *Tracker) snapshotLocked() Job {
	job := Job{
		DocumentID: t.documentID,
		Phase:      t.phase,
		Ticks:      t.ticks,
		Err:        t.err,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
	if t.doc != nil {
		d := *t.doc
		job.Document = &d
	}
	return job
}

func (t *Tracker) notify() {
	select {
	case t.updates <- struct{}{}:
	default:
	}
}
