package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// Archiver mirrors the local cache operations the facade writes through
// to. Implementations must tolerate repeated puts of the same document.
type Archiver interface {
	Put(ctx context.Context, docs ...entity.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error)
}

// State is the externally observed view of the whole store.
type State struct {
	Job        Job
	Collection CollectionState
	Statistics entity.Statistics
	StatsReady bool
	Busy       bool
	UploadErr  string
	GeneralErr string
}

// Store composes the tracker, the archive collection, and the
// statistics cache behind one API with a unified error surface. Upload
// and processing failures land on one channel, everything else on the
// other, so an upload failure never masks an unrelated fetch failure.
type Store struct {
	backend    api.Backend
	tracker    *Tracker
	collection *Collection
	stats      *StatsCache
	archive    Archiver
	log        *slog.Logger

	mu         sync.Mutex
	uploadErr  error
	generalErr error

	updates chan struct{}
}

type StoreOption func(*storeOptions)

type storeOptions struct {
	clock        Clock
	pollInterval time.Duration
	maxPollTicks int
	pageSize     int
	archive      Archiver
}

// WithStoreClock swaps the tracker's wall clock, for tests.
func WithStoreClock(c Clock) StoreOption {
	return func(o *storeOptions) { o.clock = c }
}

func WithStorePollInterval(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.pollInterval = d }
}

func WithStoreMaxPollTicks(n int) StoreOption {
	return func(o *storeOptions) { o.maxPollTicks = n }
}

func WithStorePageSize(n int) StoreOption {
	return func(o *storeOptions) { o.pageSize = n }
}

// WithArchive attaches a local cache that load, approve, and remove
// write through to. Optional; the store works without one.
func WithArchive(a Archiver) StoreOption {
	return func(o *storeOptions) { o.archive = a }
}

func New(backend api.Backend, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		backend: backend,
		archive: o.archive,
		log:     logger,
		updates: make(chan struct{}, 1),
	}

	trackerOpts := []TrackerOption{WithOnTerminal(s.onTerminal)}
	if o.clock != nil {
		trackerOpts = append(trackerOpts, WithClock(o.clock))
	}
	if o.pollInterval > 0 {
		trackerOpts = append(trackerOpts, WithPollInterval(o.pollInterval))
	}
	if o.maxPollTicks > 0 {
		trackerOpts = append(trackerOpts, WithMaxPollTicks(o.maxPollTicks))
	}
	s.tracker = NewTracker(backend, logger, trackerOpts...)

	var colOpts []CollectionOption
	if o.pageSize > 0 {
		colOpts = append(colOpts, WithPageSize(o.pageSize))
	}
	s.collection = NewCollection(backend, logger, colOpts...)
	s.stats = NewStatsCache(backend, logger)
	return s
}

// Updates signals after every state change, including asynchronous
// polling transitions. The channel coalesces bursts.
func (s *Store) Updates() <-chan struct{} { return s.updates }

// State assembles a consistent snapshot of all three components.
func (s *Store) State() State {
	job := s.tracker.Snapshot()
	col := s.collection.Snapshot()
	stats, ready := s.stats.Snapshot()

	s.mu.Lock()
	upErr, genErr := s.uploadErr, s.generalErr
	s.mu.Unlock()

	st := State{
		Job:        job,
		Collection: col,
		Statistics: stats,
		StatsReady: ready,
		Busy:       job.Phase.Active() || col.Loading || s.stats.Refreshing(),
	}
	if upErr != nil {
		st.UploadErr = upErr.Error()
	}
	if genErr != nil {
		st.GeneralErr = genErr.Error()
	}
	return st
}

// Busy reports whether any component has work in flight.
func (s *Store) Busy() bool {
	return s.tracker.Snapshot().Phase.Active() || s.collection.Loading() || s.stats.Refreshing()
}

// Init hydrates from the local cache when available, then loads the
// first archive page and the statistics concurrently. Either failure
// lands on the general error channel without aborting the other.
func (s *Store) Init(ctx context.Context) error {
	s.Hydrate(ctx)

	var g errgroup.Group
	g.Go(func() error { return s.LoadArchive(ctx) })
	g.Go(func() error { return s.RefreshStatistics(ctx) })
	return g.Wait()
}

// Hydrate seeds the collection from the local cache so the archive
// renders before the first network round trip. No-op without a cache.
func (s *Store) Hydrate(ctx context.Context) {
	if s.archive == nil {
		return
	}
	col := s.collection.Snapshot()
	docs, total, err := s.archive.List(ctx, col.Criteria, col.Sort, s.collection.pageSize, 0)
	if err != nil {
		s.log.Warn("store.hydrate.failed", "error", err)
		return
	}
	if len(docs) == 0 {
		return
	}
	s.collection.Seed(docs, total)
	s.log.Info("store.hydrate.ok", "items", len(docs), "total", total)
	s.notify()
}

// SubmitReceipt uploads and starts tracking. A new submission clears
// the upload error channel and supersedes any session still polling.
func (s *Store) SubmitReceipt(ctx context.Context, upload entity.Upload) (string, error) {
	s.mu.Lock()
	s.uploadErr = nil
	s.mu.Unlock()

	id, err := s.tracker.Submit(ctx, upload)
	if err != nil {
		s.setUploadErr(err)
		return "", err
	}
	s.notify()
	return id, nil
}

// RetryReceipt retries the current failed or timed-out submission.
func (s *Store) RetryReceipt(ctx context.Context) error {
	s.mu.Lock()
	s.uploadErr = nil
	s.mu.Unlock()

	if err := s.tracker.Retry(ctx); err != nil {
		s.setUploadErr(err)
		return err
	}
	s.notify()
	return nil
}

// CancelTracking stops the polling loop without contacting the backend.
func (s *Store) CancelTracking() {
	s.tracker.Cancel()
	s.notify()
}

// Job returns a snapshot of the tracked submission.
func (s *Store) Job() Job { return s.tracker.Snapshot() }

// AwaitTerminal blocks until the tracked submission leaves its active
// phases or ctx expires. Returns immediately when nothing is tracked.
func (s *Store) AwaitTerminal(ctx context.Context) (Job, error) {
	for {
		job := s.tracker.Snapshot()
		if !job.Phase.Active() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-s.updates:
		}
	}
}

// Approve archives the resolved submission: the backend persists the
// final fields, the document moves to the head of the collection, the
// statistics refresh, and the tracker returns to idle. Nothing mutates
// when the backend rejects the call.
func (s *Store) Approve(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error) {
	job := s.tracker.Snapshot()
	if job.Phase != constants.PhaseResolved || job.Document == nil || job.Document.ID != id {
		err := fmt.Errorf("%w: no resolved submission %q to approve", common.ErrInvalidInput, id)
		s.setGeneralErr(err)
		return entity.Document{}, err
	}

	doc, err := s.backend.ApproveDocument(ctx, id, final)
	if err != nil {
		if !errors.Is(err, common.ErrMutationFailed) {
			err = fmt.Errorf("%w: %v", common.ErrMutationFailed, err)
		}
		s.setGeneralErr(err)
		return entity.Document{}, err
	}

	s.collection.Prepend(doc)
	s.tracker.Reset()
	s.cachePut(ctx, doc)
	if err := s.stats.Refresh(ctx); err != nil {
		s.setGeneralErr(err)
	}
	s.notify()
	s.log.Info("store.approve.ok", "document_id", doc.ID)
	return doc, nil
}

// UpdateDocument overwrites a document's fields on the backend and, if
// the document is in the visible collection, swaps it in place.
func (s *Store) UpdateDocument(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
	doc, err := s.backend.UpdateDocument(ctx, id, f)
	if err != nil {
		if !errors.Is(err, common.ErrMutationFailed) {
			err = fmt.Errorf("%w: %v", common.ErrMutationFailed, err)
		}
		s.setGeneralErr(err)
		return entity.Document{}, err
	}
	if s.collection.Replace(doc) {
		s.cachePut(ctx, doc)
		if err := s.stats.Refresh(ctx); err != nil {
			s.setGeneralErr(err)
		}
	}
	s.notify()
	return doc, nil
}

// LoadArchive fetches page 1 under the current criteria, replace mode.
func (s *Store) LoadArchive(ctx context.Context) error {
	return s.afterCollectionOp(ctx, s.collection.Load(ctx))
}

// LoadMore appends the next archive page; no-op while loading or when
// the server has nothing further.
func (s *Store) LoadMore(ctx context.Context) error {
	return s.afterCollectionOp(ctx, s.collection.LoadMore(ctx))
}

// SetCriteria merges filters and reloads from page 1.
func (s *Store) SetCriteria(ctx context.Context, patch entity.Criteria) error {
	return s.afterCollectionOp(ctx, s.collection.SetCriteria(ctx, patch))
}

// ClearCriteria drops all filters and the search query, then reloads.
func (s *Store) ClearCriteria(ctx context.Context) error {
	return s.afterCollectionOp(ctx, s.collection.ClearCriteria(ctx))
}

// SetSort replaces the sort and reloads from page 1.
func (s *Store) SetSort(ctx context.Context, sort entity.Sort) error {
	return s.afterCollectionOp(ctx, s.collection.SetSort(ctx, sort))
}

// Search sets the free-text query and reloads; the query supersedes
// structured filters until cleared.
func (s *Store) Search(ctx context.Context, query string) error {
	return s.afterCollectionOp(ctx, s.collection.Search(ctx, query))
}

// RemoveDocument deletes optimistically and refreshes statistics on
// success; on failure the collection rolls back and the error is
// recorded and returned.
func (s *Store) RemoveDocument(ctx context.Context, id string) error {
	if err := s.collection.Remove(ctx, id); err != nil {
		s.setGeneralErr(err)
		return err
	}
	s.cacheDelete(ctx, id)
	if err := s.stats.Refresh(ctx); err != nil {
		s.setGeneralErr(err)
	}
	s.notify()
	return nil
}

// RefreshStatistics replaces the aggregate wholesale.
func (s *Store) RefreshStatistics(ctx context.Context) error {
	if err := s.stats.Refresh(ctx); err != nil {
		s.setGeneralErr(err)
		return err
	}
	s.notify()
	return nil
}

// LastUploadError returns the recorded upload-channel error, if any.
func (s *Store) LastUploadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadErr
}

// LastError returns the recorded general-channel error, if any.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generalErr
}

// ClearUploadError clears only the upload channel.
func (s *Store) ClearUploadError() {
	s.mu.Lock()
	s.uploadErr = nil
	s.mu.Unlock()
	s.notify()
}

// ClearGeneralError clears only the general channel.
func (s *Store) ClearGeneralError() {
	s.mu.Lock()
	s.generalErr = nil
	s.mu.Unlock()
	s.notify()
}

// ClearErrors clears both channels.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	s.uploadErr = nil
	s.generalErr = nil
	s.mu.Unlock()
	s.notify()
}

// Reset stops all tracking and restores every component to its initial
// empty state; used on session teardown. The local cache survives.
func (s *Store) Reset() {
	s.tracker.Reset()
	s.collection.Reset()
	s.stats.Reset()
	s.mu.Lock()
	s.uploadErr = nil
	s.generalErr = nil
	s.mu.Unlock()
	s.notify()
	s.log.Info("store.reset")
}

// afterCollectionOp records collection errors and writes fresh items
// through to the local cache.
func (s *Store) afterCollectionOp(ctx context.Context, err error) error {
	if err != nil {
		if !errors.Is(err, common.ErrFetchFailed) && !errors.Is(err, common.ErrMutationFailed) && !errors.Is(err, common.ErrNotFound) {
			err = fmt.Errorf("%w: %v", common.ErrFetchFailed, err)
		}
		s.setGeneralErr(err)
		return err
	}
	s.cachePut(ctx, s.collection.Snapshot().Items...)
	s.notify()
	return nil
}

// onTerminal runs on the polling goroutine after each terminal phase.
func (s *Store) onTerminal(job Job) {
	if job.Err != nil {
		s.setUploadErr(job.Err)
		return
	}
	s.notify()
}

func (s *Store) setUploadErr(err error) {
	s.mu.Lock()
	s.uploadErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setGeneralErr(err error) {
	s.mu.Lock()
	s.generalErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) cachePut(ctx context.Context, docs ...entity.Document) {
	if s.archive == nil || len(docs) == 0 {
		return
	}
	if err := s.archive.Put(ctx, docs...); err != nil {
		s.log.Warn("store.cache.put_failed", "error", err)
	}
}

func (s *Store) cacheDelete(ctx context.Context, id string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Delete(ctx, id); err != nil {
		s.log.Warn("store.cache.delete_failed", "document_id", id, "error", err)
	}
}

func (s *Store) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
