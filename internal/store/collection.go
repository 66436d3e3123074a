package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// CollectionState is a snapshot of the archive view.
type CollectionState struct {
	Items    []entity.Document
	Total    int
	Page     int
	HasMore  bool
	Loading  bool
	Criteria entity.Criteria
	Sort     entity.Sort
}

// Collection maintains the visible slice of the archive under the
// active criteria and sort. Replace-mode fetches (fresh queries)
// overwrite the sequence; append-mode fetches (pagination) extend it.
// Appending never re-sorts: server order is preserved across pages.
type Collection struct {
	backend  api.Backend
	log      *slog.Logger
	pageSize int

	mu       sync.Mutex
	gen      uint64
	items    []entity.Document
	total    int
	page     int
	hasMore  bool
	inflight int
	criteria entity.Criteria
	sort     entity.Sort

	updates chan struct{}
}

type CollectionOption func(*Collection)

func WithPageSize(n int) CollectionOption {
	return func(c *Collection) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func NewCollection(backend api.Backend, logger *slog.Logger, opts ...CollectionOption) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collection{
		backend:  backend,
		log:      logger,
		pageSize: 20,
		sort:     entity.DefaultSort(),
		updates:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Updates signals after every visible change. The channel coalesces
// bursts; consumers read the current state via Snapshot.
func (c *Collection) Updates() <-chan struct{} { return c.updates }

// Snapshot returns a copy of the archive view.
func (c *Collection) Snapshot() CollectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CollectionState{
		Items:    append([]entity.Document(nil), c.items...),
		Total:    c.total,
		Page:     c.page,
		HasMore:  c.hasMore,
		Loading:  c.inflight > 0,
		Criteria: c.criteria.Clone(),
		Sort:     c.sort,
	}
}

// Loading reports whether a fetch is in flight.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// Seed primes the sequence before the first network load, typically
// from a local cache. Once a real load has started or completed the
// seed is refused; the next Load replaces seeded items wholesale.
func (c *Collection) Seed(items []entity.Document, total int) {
	c.mu.Lock()
	if c.page != 0 || c.inflight > 0 {
		c.mu.Unlock()
		return
	}
	c.items = append([]entity.Document(nil), items...)
	c.total = total
	c.hasMore = false
	c.mu.Unlock()
	c.notify()
}

// Load fetches page 1 under the current criteria and sort and replaces
// the stored sequence. A query issued after this one supersedes it: the
// stale result is discarded on arrival.
func (c *Collection) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	crit := c.criteria.Clone()
	sort := c.sort
	c.page = 1
	c.inflight++
	c.mu.Unlock()
	c.notify()

	page, err := c.fetch(ctx, crit, sort, 1)

	c.mu.Lock()
	c.inflight--
	if err != nil {
		c.mu.Unlock()
		c.notify()
		c.log.Error("collection.load.failed", "error", err)
		return err
	}
	if gen != c.gen {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.items = page.Items
	c.total = page.Total
	c.page = 1
	c.hasMore = page.HasMore
	c.mu.Unlock()
	c.notify()

	c.log.Info("collection.load.ok", "items", len(page.Items), "total", page.Total, "has_more", page.HasMore)
	return nil
}

// LoadMore appends the next page to the sequence. It is a no-op while a
// fetch is in flight or when the server has nothing further; both
// guards are required to prevent duplicate concurrent page requests.
func (c *Collection) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasMore || c.inflight > 0 {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	next := c.page + 1
	crit := c.criteria.Clone()
	sort := c.sort
	c.inflight++
	c.mu.Unlock()
	c.notify()

	page, err := c.fetch(ctx, crit, sort, next)

	c.mu.Lock()
	c.inflight--
	if err != nil {
		// the cursor stays put so the next LoadMore retries this page
		c.mu.Unlock()
		c.notify()
		c.log.Error("collection.load_more.failed", "page", next, "error", err)
		return err
	}
	if gen != c.gen {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.items = append(c.items, page.Items...)
	c.total = page.Total
	c.page = next
	c.hasMore = page.HasMore
	c.mu.Unlock()
	c.notify()

	c.log.Info("collection.load_more.ok", "page", next, "items", len(page.Items), "has_more", page.HasMore)
	return nil
}

// SetCriteria merges the non-zero fields of patch into the active
// criteria, resets to page 1, and reloads. Clearing individual fields
// goes through ClearCriteria.
func (c *Collection) SetCriteria(ctx context.Context, patch entity.Criteria) error {
	c.mu.Lock()
	if patch.Category != "" {
		c.criteria.Category = patch.Category
	}
	if patch.FromDate != nil {
		t := *patch.FromDate
		c.criteria.FromDate = &t
	}
	if patch.ToDate != nil {
		t := *patch.ToDate
		c.criteria.ToDate = &t
	}
	if len(patch.Statuses) > 0 {
		c.criteria.Statuses = append([]constants.DocumentStatus(nil), patch.Statuses...)
	}
	if patch.MinAmount != nil {
		v := *patch.MinAmount
		c.criteria.MinAmount = &v
	}
	if patch.MaxAmount != nil {
		v := *patch.MaxAmount
		c.criteria.MaxAmount = &v
	}
	if patch.Query != "" {
		c.criteria.Query = patch.Query
	}
	c.mu.Unlock()
	return c.Load(ctx)
}

// ClearCriteria resets all filter and search state and reloads. The
// active sort is kept.
func (c *Collection) ClearCriteria(ctx context.Context) error {
	c.mu.Lock()
	c.criteria = entity.Criteria{}
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetSort replaces the active sort, resets to page 1, and reloads.
func (c *Collection) SetSort(ctx context.Context, s entity.Sort) error {
	c.mu.Lock()
	c.sort = s
	c.mu.Unlock()
	return c.Load(ctx)
}

// Search sets the free-text query and reloads from page 1. While the
// query is non-empty it supersedes the structured filters entirely; an
// empty query falls back to filtered listing.
func (c *Collection) Search(ctx context.Context, query string) error {
	c.mu.Lock()
	c.criteria.Query = strings.TrimSpace(query)
	c.mu.Unlock()
	return c.Load(ctx)
}

// Remove deletes optimistically: the document disappears and the total
// drops before the backend confirms. On failure the captured snapshot
// is restored exactly as it was and the error surfaces to the caller.
func (c *Collection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	idx := -1
	for i := range c.items {
		if c.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: document %s not in collection", common.ErrNotFound, id)
	}
	prevItems := append([]entity.Document(nil), c.items...)
	prevTotal := c.total
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.total--
	c.mu.Unlock()
	c.notify()

	if err := c.backend.DeleteDocument(ctx, id); err != nil {
		if !errors.Is(err, common.ErrMutationFailed) {
			err = fmt.Errorf("%w: %v", common.ErrMutationFailed, err)
		}
		c.mu.Lock()
		c.items = prevItems
		c.total = prevTotal
		c.mu.Unlock()
		c.notify()
		c.log.Error("collection.remove.rolled_back", "document_id", id, "error", err)
		return err
	}

	c.log.Info("collection.remove.ok", "document_id", id)
	return nil
}

// Prepend inserts a freshly approved document at the head of the
// sequence and bumps the total.
func (c *Collection) Prepend(doc entity.Document) {
	c.mu.Lock()
	c.items = append([]entity.Document{doc}, c.items...)
	c.total++
	c.mu.Unlock()
	c.notify()
}

// Replace swaps the stored copy of a document in place, if present.
func (c *Collection) Replace(doc entity.Document) bool {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == doc.ID {
			c.items[i] = doc
			c.mu.Unlock()
			c.notify()
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// Reset drops items, criteria, and pagination back to the zero state.
func (c *Collection) Reset() {
	c.mu.Lock()
	c.gen++
	c.items = nil
	c.total = 0
	c.page = 0
	c.hasMore = false
	c.criteria = entity.Criteria{}
	c.sort = entity.DefaultSort()
	c.mu.Unlock()
	c.notify()
}

// fetch picks the boundary operation: a non-empty query goes to search
// (the server ranks; filters and sort do not apply), anything else to
// the filtered listing.
func (c *Collection) fetch(ctx context.Context, crit entity.Criteria, sort entity.Sort, page int) (entity.Page, error) {
	if crit.Query != "" {
		return c.backend.SearchDocuments(ctx, crit.Query, page, c.pageSize)
	}
	return c.backend.ListDocuments(ctx, api.ListRequest{
		Criteria: crit,
		Sort:     sort,
		Page:     page,
		PageSize: c.pageSize,
	})
}

func (c *Collection) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
