// Package cache provides a local SQLite archive of fetched documents.
//
// The cache uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO. It hydrates the collection on startup and keeps
// a queryable offline copy of everything the store has seen. The schema
// is managed through versioned migrations in the migrations/ directory.
//
// By default the database lives at ~/.receiptdesk/data/archive.db. All
// operations are safe for concurrent use; SQLite in WAL mode handles
// the locking.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/cache/migrations"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

const dateLayout = "2006-01-02"

// Archive is the SQLite-backed document cache.
type Archive struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// NewArchive opens (or creates) the cache database at path. An empty
// path defaults to ~/.receiptdesk/data/archive.db.
func NewArchive(path string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".receiptdesk", "data", "archive.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode so reads do not block the write-through path
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &Archive{
		db:   db,
		path: path,
		log:  logger,
	}

	if err := a.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("cache.open", "path", path)
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// migrate runs all pending migrations.
func (a *Archive) migrate(fsys embed.FS) error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := a.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := a.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := a.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Put stores or updates documents in one transaction.
func (a *Archive) Put(ctx context.Context, docs ...entity.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (
			id, status,
			vendor, vendor_confidence,
			tx_date, tx_date_confidence,
			amount, amount_confidence, amount_value,
			category, category_confidence,
			image_url, currency_code, needs_review,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			vendor = excluded.vendor,
			vendor_confidence = excluded.vendor_confidence,
			tx_date = excluded.tx_date,
			tx_date_confidence = excluded.tx_date_confidence,
			amount = excluded.amount,
			amount_confidence = excluded.amount_confidence,
			amount_value = excluded.amount_value,
			category = excluded.category,
			category_confidence = excluded.category_confidence,
			image_url = excluded.image_url,
			currency_code = excluded.currency_code,
			needs_review = excluded.needs_review,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("caching document: %w: missing id", common.ErrInvalidInput)
		}
		createdAt := doc.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		updatedAt := doc.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}

		needsReview := 0
		if doc.NeedsReview {
			needsReview = 1
		}

		if _, err := stmt.ExecContext(ctx,
			doc.ID, string(doc.Status),
			doc.Fields.Vendor.Value, doc.Fields.Vendor.Confidence,
			doc.Fields.TxDate.Value, doc.Fields.TxDate.Confidence,
			doc.Fields.Amount.Value, doc.Fields.Amount.Confidence, doc.Amount(),
			doc.Fields.Category.Value, doc.Fields.Category.Confidence,
			doc.ImageURL, doc.CurrencyCode, needsReview,
			createdAt, updatedAt,
		); err != nil {
			return fmt.Errorf("caching document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a cached document by ID.
func (a *Archive) Get(ctx context.Context, id string) (*entity.Document, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, status,
			vendor, vendor_confidence,
			tx_date, tx_date_confidence,
			amount, amount_confidence,
			category, category_confidence,
			image_url, currency_code, needs_review,
			created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocumentRow(row)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from the cache.
func (a *Archive) Delete(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cached document: %w", err)
	}
	return nil
}

// Clear removes every cached document.
func (a *Archive) Clear(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// List returns cached documents matching the criteria, ordered by the
// sort, plus the total match count before limit/offset. A free-text
// query supersedes the structured filters, same as the server.
func (a *Archive) List(ctx context.Context, crit entity.Criteria, s entity.Sort, limit, offset int) ([]entity.Document, int, error) {
	where, args := buildWhere(crit.Effective())

	var total int
	countQuery := "SELECT COUNT(*) FROM documents" + where
	if err := a.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting cached documents: %w", err)
	}

	query := `
		SELECT id, status,
			vendor, vendor_confidence,
			tx_date, tx_date_confidence,
			amount, amount_confidence,
			category, category_confidence,
			image_url, currency_code, needs_review,
			created_at, updated_at
		FROM documents` + where + " ORDER BY " + orderClause(s)
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying cached documents: %w", err)
	}
	defer rows.Close()

	var docs []entity.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating cached documents: %w", err)
	}

	return docs, total, nil
}

// Stats aggregates the cached documents into an offline statistics
// snapshot: totals, per-category breakdown, and per-month series.
func (a *Archive) Stats(ctx context.Context) (entity.Statistics, error) {
	stats := entity.Statistics{
		ByCategory: make(map[string]entity.CategoryStat),
		ComputedAt: time.Now().UTC(),
	}

	row := a.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_value), 0), COALESCE(AVG(amount_value), 0)
		FROM documents
	`)
	if err := row.Scan(&stats.TotalCount, &stats.TotalAmount, &stats.AverageAmount); err != nil {
		return entity.Statistics{}, fmt.Errorf("aggregating totals: %w", err)
	}

	catRows, err := a.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(amount_value), 0)
		FROM documents GROUP BY category
	`)
	if err != nil {
		return entity.Statistics{}, fmt.Errorf("aggregating categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var category string
		var cs entity.CategoryStat
		if err := catRows.Scan(&category, &cs.Count, &cs.Amount); err != nil {
			return entity.Statistics{}, fmt.Errorf("scanning category aggregate: %w", err)
		}
		stats.ByCategory[category] = cs
	}
	if err := catRows.Err(); err != nil {
		return entity.Statistics{}, fmt.Errorf("iterating category aggregates: %w", err)
	}

	monthRows, err := a.db.QueryContext(ctx, `
		SELECT substr(tx_date, 1, 7) AS month, COUNT(*), COALESCE(SUM(amount_value), 0)
		FROM documents
		WHERE length(tx_date) >= 7
		GROUP BY month ORDER BY month DESC
	`)
	if err != nil {
		return entity.Statistics{}, fmt.Errorf("aggregating months: %w", err)
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var ms entity.MonthStat
		if err := monthRows.Scan(&ms.Month, &ms.Count, &ms.Amount); err != nil {
			return entity.Statistics{}, fmt.Errorf("scanning month aggregate: %w", err)
		}
		stats.ByMonth = append(stats.ByMonth, ms)
	}
	if err := monthRows.Err(); err != nil {
		return entity.Statistics{}, fmt.Errorf("iterating month aggregates: %w", err)
	}

	return stats, nil
}

// buildWhere assembles the WHERE clause for a criteria. Free-text
// queries match vendor and category; structured filters combine with
// AND like the server does.
func buildWhere(crit entity.Criteria) (string, []any) {
	var clauses []string
	var args []any

	if q := strings.TrimSpace(crit.Query); q != "" {
		clauses = append(clauses, "(vendor LIKE ? OR category LIKE ?)")
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	if crit.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, crit.Category)
	}
	if crit.FromDate != nil {
		clauses = append(clauses, "tx_date >= ?")
		args = append(args, crit.FromDate.Format(dateLayout))
	}
	if crit.ToDate != nil {
		clauses = append(clauses, "tx_date <= ?")
		args = append(args, crit.ToDate.Format(dateLayout))
	}
	if len(crit.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(crit.Statuses)), ", ")
		clauses = append(clauses, "status IN ("+placeholders+")")
		for _, st := range crit.Statuses {
			args = append(args, string(st))
		}
	}
	if crit.MinAmount != nil {
		clauses = append(clauses, "amount_value >= ?")
		args = append(args, *crit.MinAmount)
	}
	if crit.MaxAmount != nil {
		clauses = append(clauses, "amount_value <= ?")
		args = append(args, *crit.MaxAmount)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps a sort to SQL. The document ID breaks ties so pages
// stay stable across identical key values.
func orderClause(s entity.Sort) string {
	var col string
	switch s.Field {
	case entity.SortByAmount:
		col = "amount_value"
	case entity.SortByVendor:
		col = "vendor COLLATE NOCASE"
	case entity.SortByCreated:
		col = "created_at"
	default:
		col = "tx_date"
	}
	dir := "ASC"
	if s.Descending {
		dir = "DESC"
	}
	return col + " " + dir + ", id ASC"
}

func scanDocumentRow(row *sql.Row) (*entity.Document, error) {
	var doc entity.Document
	var status string
	var needsReview int64
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &status,
		&doc.Fields.Vendor.Value, &doc.Fields.Vendor.Confidence,
		&doc.Fields.TxDate.Value, &doc.Fields.TxDate.Confidence,
		&doc.Fields.Amount.Value, &doc.Fields.Amount.Confidence,
		&doc.Fields.Category.Value, &doc.Fields.Category.Confidence,
		&doc.ImageURL, &doc.CurrencyCode, &needsReview,
		&createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cached document: %w", err)
	}

	finishDocument(&doc, status, needsReview, createdAt, updatedAt)
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*entity.Document, error) {
	var doc entity.Document
	var status string
	var needsReview int64
	var createdAt, updatedAt sql.NullTime

	if err := rows.Scan(&doc.ID, &status,
		&doc.Fields.Vendor.Value, &doc.Fields.Vendor.Confidence,
		&doc.Fields.TxDate.Value, &doc.Fields.TxDate.Confidence,
		&doc.Fields.Amount.Value, &doc.Fields.Amount.Confidence,
		&doc.Fields.Category.Value, &doc.Fields.Category.Confidence,
		&doc.ImageURL, &doc.CurrencyCode, &needsReview,
		&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning cached document: %w", err)
	}

	finishDocument(&doc, status, needsReview, createdAt, updatedAt)
	return &doc, nil
}

func finishDocument(doc *entity.Document, status string, needsReview int64, createdAt, updatedAt sql.NullTime) {
	doc.Status = constants.DocumentStatus(status)
	doc.NeedsReview = needsReview != 0
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
}
