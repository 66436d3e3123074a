// Package api defines the backend surface the store depends on and its
// HTTP implementation.
package api

import (
	"context"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// ListRequest names one slice of the archive. Page is 1-based.
type ListRequest struct {
	Criteria entity.Criteria
	Sort     entity.Sort
	Page     int
	PageSize int
}

// JobCheck is the result of one status poll. The backend reports the
// document's own lifecycle status; review and approved both mean the
// record is ready to fetch.
type JobCheck struct {
	Status  constants.DocumentStatus `json:"status"`
	Message string                   `json:"message,omitempty"`
}

// Backend is the server surface the store composes over. Implementations
// must be safe for concurrent use.
type Backend interface {
	// SubmitDocument uploads a receipt and returns the identifier assigned
	// to the new document.
	SubmitDocument(ctx context.Context, upload entity.Upload) (string, error)

	// CheckJob reports the processing status of a submitted document.
	CheckJob(ctx context.Context, id string) (JobCheck, error)

	// RetryJob asks the backend to reprocess a failed submission.
	RetryJob(ctx context.Context, id string) error

	// FetchDocument retrieves one document by ID.
	FetchDocument(ctx context.Context, id string) (entity.Document, error)

	// ListDocuments retrieves one page of the archive.
	ListDocuments(ctx context.Context, req ListRequest) (entity.Page, error)

	// SearchDocuments retrieves one page of free-text search results.
	// Search ranking supersedes structured filtering entirely.
	SearchDocuments(ctx context.Context, query string, page, pageSize int) (entity.Page, error)

	// UpdateDocument overwrites the extracted fields of a document.
	UpdateDocument(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error)

	// ApproveDocument archives a resolved document with its final fields.
	ApproveDocument(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error)

	// DeleteDocument removes a document permanently.
	DeleteDocument(ctx context.Context, id string) error

	// FetchStatistics retrieves the archive-wide aggregate.
	FetchStatistics(ctx context.Context) (entity.Statistics, error)
}
