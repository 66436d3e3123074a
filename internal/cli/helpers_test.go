package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/cache"
	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/export"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// withServices swaps the package-level wiring for one test and restores
// it afterwards. A non-nil docStore keeps initServices from running, so
// every test must provide one. Flag-bound variables reset around each
// run so flag state cannot leak between tests.
func withServices(t *testing.T, be api.Backend, st *store.Store, ar *cache.Archive, ex *export.Service) {
	t.Helper()
	prevCfg, prevLogger, prevBackend := cfg, logger, backend
	prevStore, prevArchive, prevExporter := docStore, archive, exporter

	cfg = nil
	logger = testLogger()
	backend = be
	docStore = st
	archive = ar
	exporter = ex
	resetFlags()

	t.Cleanup(func() {
		cfg, logger, backend = prevCfg, prevLogger, prevBackend
		docStore, archive, exporter = prevStore, prevArchive, prevExporter
		resetFlags()
	})
}

func resetFlags() {
	cfgPath = ""
	listCategory, listFrom, listTo, listSort = "", "", "", ""
	listStatuses = nil
	listMin, listMax = 0, 0
	listAll, listOffline, listJSON = false, false, false
	searchOffline = false
	statsOffline = false
	submitCurrency = ""
	submitApprove = false
	batchCurrency = ""
	batchSkipHidden = true
	watchCurrency = ""
	watchInitialScan = false
	watchDebounce = 0
	approveVendor, approveDate, approveAmount, approveCategory = "", "", "", ""
	updateVendor, updateDate, updateAmount, updateCategory = "", "", "", ""
	exportOut, exportFrom, exportTo, exportCategory = "receipts.xlsx", "", "", ""
}

// cliDoc builds a resolved document whose fields pass validation.
func cliDoc(id string) entity.Document {
	return entity.Document{
		ID:           id,
		Status:       constants.DocumentReview,
		CurrencyCode: "USD",
		Fields: entity.ExtractedFields{
			Vendor:   entity.ExtractedField{Value: "Vendor " + id, Confidence: 0.98},
			TxDate:   entity.ExtractedField{Value: "2025-05-01", Confidence: 0.97},
			Amount:   entity.ExtractedField{Value: "10.00", Confidence: 0.99},
			Category: entity.ExtractedField{Value: string(constants.Dining), Confidence: 0.9},
		},
	}
}

// cliBackend is a hand-rolled backend double. Unset functions fall back
// to a submission that resolves on the first status check, which keeps
// command tests free of polling setup.
type cliBackend struct {
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

func (m *cliBackend) SubmitDocument(ctx context.Context, upload entity.Upload) (string, error) {
	if m.SubmitDocumentFunc == nil {
		return "doc-1", nil
	}
	return m.SubmitDocumentFunc(ctx, upload)
}

func (m *cliBackend) CheckJob(ctx context.Context, id string) (api.JobCheck, error) {
	if m.CheckJobFunc == nil {
		return api.JobCheck{Status: constants.DocumentReview}, nil
	}
	return m.CheckJobFunc(ctx, id)
}

func (m *cliBackend) RetryJob(ctx context.Context, id string) error {
	if m.RetryJobFunc == nil {
		return nil
	}
	return m.RetryJobFunc(ctx, id)
}

func (m *cliBackend) FetchDocument(ctx context.Context, id string) (entity.Document, error) {
	if m.FetchDocumentFunc == nil {
		return cliDoc(id), nil
	}
	return m.FetchDocumentFunc(ctx, id)
}

func (m *cliBackend) ListDocuments(ctx context.Context, req api.ListRequest) (entity.Page, error) {
	if m.ListDocumentsFunc == nil {
		return entity.Page{}, nil
	}
	return m.ListDocumentsFunc(ctx, req)
}

func (m *cliBackend) SearchDocuments(ctx context.Context, query string, page, pageSize int) (entity.Page, error) {
	if m.SearchDocumentsFunc == nil {
		return entity.Page{}, nil
	}
	return m.SearchDocumentsFunc(ctx, query, page, pageSize)
}

func (m *cliBackend) UpdateDocument(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
	if m.UpdateDocumentFunc == nil {
		d := cliDoc(id)
		d.Fields = f
		return d, nil
	}
	return m.UpdateDocumentFunc(ctx, id, f)
}

func (m *cliBackend) ApproveDocument(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error) {
	if m.ApproveDocumentFunc == nil {
		d := cliDoc(id)
		d.Status = constants.DocumentApproved
		d.Fields = final
		return d, nil
	}
	return m.ApproveDocumentFunc(ctx, id, final)
}

func (m *cliBackend) DeleteDocument(ctx context.Context, id string) error {
	if m.DeleteDocumentFunc == nil {
		return nil
	}
	return m.DeleteDocumentFunc(ctx, id)
}

func (m *cliBackend) FetchStatistics(ctx context.Context) (entity.Statistics, error) {
	if m.FetchStatisticsFunc == nil {
		return entity.Statistics{}, nil
	}
	return m.FetchStatisticsFunc(ctx)
}
