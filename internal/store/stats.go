package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// StatsCache holds one archive-wide aggregate, replaced wholesale on
// refresh. Aggregates are not composable client-side, so there is no
// incremental update path.
type StatsCache struct {
	backend api.Backend
	log     *slog.Logger

	mu         sync.Mutex
	stats      entity.Statistics
	loaded     bool
	refreshing bool

	updates chan struct{}
}

func NewStatsCache(backend api.Backend, logger *slog.Logger) *StatsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCache{
		backend: backend,
		log:     logger,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals after every change. The channel coalesces bursts.
func (s *StatsCache) Updates() <-chan struct{} { return s.updates }

// Refresh replaces the aggregate. A refresh already in flight absorbs
// the call; a failed refresh keeps the previous aggregate intact.
func (s *StatsCache) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	s.mu.Unlock()
	s.notify()

	stats, err := s.backend.FetchStatistics(ctx)

	s.mu.Lock()
	s.refreshing = false
	if err != nil {
		s.mu.Unlock()
		s.notify()
		if !errors.Is(err, common.ErrFetchFailed) {
			err = fmt.Errorf("%w: %v", common.ErrFetchFailed, err)
		}
		s.log.Error("stats.refresh.failed", "error", err)
		return err
	}
	s.stats = stats
	s.loaded = true
	s.mu.Unlock()
	s.notify()

	s.log.Info("stats.refresh.ok", "total_count", stats.TotalCount, "total_amount", stats.TotalAmount)
	return nil
}

// Snapshot returns a copy of the aggregate and whether any refresh has
// succeeded yet.
func (s *StatsCache) Snapshot() (entity.Statistics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Clone(), s.loaded
}

// Refreshing reports whether a refresh is in flight.
func (s *StatsCache) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// Reset drops the aggregate back to the zero state.
func (s *StatsCache) Reset() {
	s.mu.Lock()
	s.stats = entity.Statistics{}
	s.loaded = false
	s.mu.Unlock()
	s.notify()
}

func (s *StatsCache) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
