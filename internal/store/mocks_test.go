package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockBackend implements api.Backend for testing.
type mockBackend struct {
	SubmitDocumentFunc  func(ctx context.Context, upload entity.Upload) (string, error)
	CheckJobFunc        func(ctx context.Context, id string) (api.JobCheck, error)
	RetryJobFunc        func(ctx context.Context, id string) error
	FetchDocumentFunc   func(ctx context.Context, id string) (entity.Document, error)
	ListDocumentsFunc   func(ctx context.Context, req api.ListRequest) (entity.Page, error)
	SearchDocumentsFunc func(ctx context.Context, query string, page, pageSize int) (entity.Page, error)
	UpdateDocumentFunc  func(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error)
	ApproveDocumentFunc func(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error)
	DeleteDocumentFunc  func(ctx context.Context, id string) error
	FetchStatisticsFunc func(ctx context.Context) (entity.Statistics, error)
}

func (m *mockBackend) SubmitDocument(ctx context.Context, upload entity.Upload) (string, error) {
	if m.SubmitDocumentFunc != nil {
		return m.SubmitDocumentFunc(ctx, upload)
	}
	return "", nil
}

func (m *mockBackend) CheckJob(ctx context.Context, id string) (api.JobCheck, error) {
	if m.CheckJobFunc != nil {
		return m.CheckJobFunc(ctx, id)
	}
	return api.JobCheck{}, nil
}

func (m *mockBackend) RetryJob(ctx context.Context, id string) error {
	if m.RetryJobFunc != nil {
		return m.RetryJobFunc(ctx, id)
	}
	return nil
}

func (m *mockBackend) FetchDocument(ctx context.Context, id string) (entity.Document, error) {
	if m.FetchDocumentFunc != nil {
		return m.FetchDocumentFunc(ctx, id)
	}
	return entity.Document{}, nil
}

func (m *mockBackend) ListDocuments(ctx context.Context, req api.ListRequest) (entity.Page, error) {
	if m.ListDocumentsFunc != nil {
		return m.ListDocumentsFunc(ctx, req)
	}
	return entity.Page{}, nil
}

func (m *mockBackend) SearchDocuments(ctx context.Context, query string, page, pageSize int) (entity.Page, error) {
	if m.SearchDocumentsFunc != nil {
		return m.SearchDocumentsFunc(ctx, query, page, pageSize)
	}
	return entity.Page{}, nil
}

func (m *mockBackend) UpdateDocument(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
	if m.UpdateDocumentFunc != nil {
		return m.UpdateDocumentFunc(ctx, id, f)
	}
	return entity.Document{}, nil
}

func (m *mockBackend) ApproveDocument(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error) {
	if m.ApproveDocumentFunc != nil {
		return m.ApproveDocumentFunc(ctx, id, final)
	}
	return entity.Document{}, nil
}

func (m *mockBackend) DeleteDocument(ctx context.Context, id string) error {
	if m.DeleteDocumentFunc != nil {
		return m.DeleteDocumentFunc(ctx, id)
	}
	return nil
}

func (m *mockBackend) FetchStatistics(ctx context.Context) (entity.Statistics, error) {
	if m.FetchStatisticsFunc != nil {
		return m.FetchStatisticsFunc(ctx)
	}
	return entity.Statistics{}, nil
}

// mockArchiver implements Archiver for testing.
type mockArchiver struct {
	PutFunc    func(ctx context.Context, docs ...entity.Document) error
	DeleteFunc func(ctx context.Context, id string) error
	ListFunc   func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error)
}

func (m *mockArchiver) Put(ctx context.Context, docs ...entity.Document) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, docs...)
	}
	return nil
}

func (m *mockArchiver) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockArchiver) List(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, crit, sort, limit, offset)
	}
	return nil, 0, nil
}

// fakeClock hands out buffered timer channels and releases them one at a
// time, so tests drive the polling loop tick by tick.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	f.mu.Lock()
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()
	return ch
}

// fire releases the oldest armed timer, reporting whether one existed.
func (f *fakeClock) fire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.waiters) == 0 {
		return false
	}
	ch := f.waiters[0]
	f.waiters = f.waiters[1:]
	f.now = f.now.Add(time.Second)
	ch <- f.now
	return true
}

// step blocks until the loop under test arms its next delay, then fires it.
func (f *fakeClock) step(t *testing.T) {
	t.Helper()
	require.Eventually(t, f.fire, time.Second, time.Millisecond)
}

func testDoc(id string) entity.Document {
	return entity.Document{
		ID:     id,
		Status: constants.DocumentReview,
		Fields: entity.ExtractedFields{
			Vendor: entity.ExtractedField{Value: "Vendor " + id, Confidence: 0.9},
			TxDate: entity.ExtractedField{Value: "2025-05-01", Confidence: 0.9},
			Amount: entity.ExtractedField{Value: "10.00", Confidence: 0.9},
		},
		CurrencyCode: "USD",
	}
}

func testUpload() entity.Upload {
	return entity.Upload{
		Filename: "coffee.jpg",
		FileExt:  "jpg",
		FileSize: 4,
		Content:  []byte("data"),
	}
}
