package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/fields"
)

// Client implements Backend over HTTP JSON. One instance is safe for
// concurrent use.
type Client struct {
	cfg        common.APIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func NewClient(cfg common.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitDocument uploads the receipt as multipart form data and returns
// the identifier the backend assigned. Every rejection, including
// duplicate-on-submit, maps to ErrUploadRejected: processing has not
// started yet.
func (c *Client) SubmitDocument(ctx context.Context, upload entity.Upload) (string, error) {
	reqID := requestID(ctx)
	start := time.Now()
	c.log.Info("api.submit.start",
		"req_id", reqID,
		"filename", upload.Filename,
		"bytes", len(upload.Content),
	)

	v := common.NewValidator()
	v.Field("filename", upload.Filename, common.Required)
	v.Field("content", upload.Content, common.Required)
	v.Field("file_size", upload.FileSize, common.MaxBytes(constants.MaxUploadBytes))
	v.Field("currency_hint", upload.CurrencyHint, common.CurrencyCode)
	if err := v.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadRejected, err)
	}
	if !constants.ExtAllowed(upload.FileExt) {
		return "", fmt.Errorf("%w: unsupported file extension %q", common.ErrUploadRejected, upload.FileExt)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", upload.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %v", common.ErrUploadRejected, err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return "", fmt.Errorf("%w: write form: %v", common.ErrUploadRejected, err)
	}
	if upload.CurrencyHint != "" {
		_ = mw.WriteField("currency_hint", upload.CurrencyHint)
	}
	if len(upload.ContentHash) > 0 {
		_ = mw.WriteField("content_hash", hex.EncodeToString(upload.ContentHash))
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: close form: %v", common.ErrUploadRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/v1/receipts"), &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", common.ErrUploadRejected, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	raw, err := c.do(req, reqID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadRejected, err)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", common.ErrUploadRejected, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: backend returned no document id", common.ErrUploadRejected)
	}

	c.log.Info("api.submit.ok",
		"req_id", reqID,
		"document_id", out.ID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.ID, nil
}

// CheckJob reports the current processing status of one submission.
// Errors come back unwrapped; the tracker decides how terminal they are.
func (c *Client) CheckJob(ctx context.Context, id string) (JobCheck, error) {
	var out JobCheck
	if err := c.getJSON(ctx, "/v1/receipts/"+url.PathEscape(id)+"/status", nil, &out); err != nil {
		return JobCheck{}, common.WrapError(err, "check status")
	}
	if !out.Status.Valid() {
		return JobCheck{}, fmt.Errorf("unknown document status %q", out.Status)
	}
	return out, nil
}

// RetryJob asks the backend to reprocess a failed submission. The caller
// owns restarting its polling loop.
func (c *Client) RetryJob(ctx context.Context, id string) error {
	reqID := requestID(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/v1/receipts/"+url.PathEscape(id)+"/retry"), nil)
	if err != nil {
		return common.WrapError(err, "build request")
	}
	if _, err := c.do(req, reqID); err != nil {
		return common.WrapError(err, "retry job")
	}
	return nil
}

func (c *Client) FetchDocument(ctx context.Context, id string) (entity.Document, error) {
	var doc entity.Document
	if err := c.getJSON(ctx, "/v1/receipts/"+url.PathEscape(id), nil, &doc); err != nil {
		return entity.Document{}, fmt.Errorf("%w: fetch document: %v", common.ErrFetchFailed, err)
	}
	if err := fields.Validate(doc.Fields); err != nil {
		c.log.Warn("api.fetch.fields_invalid", "document_id", doc.ID, "error", err)
		doc.NeedsReview = true
	}
	return doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, req ListRequest) (entity.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.PageSize))
	q.Set("sort", string(req.Sort.Field))
	if req.Sort.Descending {
		q.Set("order", "desc")
	} else {
		q.Set("order", "asc")
	}
	crit := req.Criteria
	if crit.Category != "" {
		q.Set("category", crit.Category)
	}
	if crit.FromDate != nil {
		q.Set("from", crit.FromDate.Format("2006-01-02"))
	}
	if crit.ToDate != nil {
		q.Set("to", crit.ToDate.Format("2006-01-02"))
	}
	for _, s := range crit.Statuses {
		q.Add("status", string(s))
	}
	if crit.MinAmount != nil {
		q.Set("min_amount", strconv.FormatFloat(*crit.MinAmount, 'f', 2, 64))
	}
	if crit.MaxAmount != nil {
		q.Set("max_amount", strconv.FormatFloat(*crit.MaxAmount, 'f', 2, 64))
	}

	var page entity.Page
	if err := c.getJSON(ctx, "/v1/receipts", q, &page); err != nil {
		return entity.Page{}, fmt.Errorf("%w: list documents: %v", common.ErrFetchFailed, err)
	}
	return page, nil
}

func (c *Client) SearchDocuments(ctx context.Context, query string, page, pageSize int) (entity.Page, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out entity.Page
	if err := c.getJSON(ctx, "/v1/receipts/search", q, &out); err != nil {
		return entity.Page{}, fmt.Errorf("%w: search documents: %v", common.ErrFetchFailed, err)
	}
	return out, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, f entity.ExtractedFields) (entity.Document, error) {
	raw, err := c.sendJSON(ctx, http.MethodPatch, "/v1/receipts/"+url.PathEscape(id), map[string]any{"fields": f})
	if err != nil {
		return entity.Document{}, fmt.Errorf("%w: update document: %v", common.ErrMutationFailed, err)
	}
	var doc entity.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entity.Document{}, fmt.Errorf("%w: decode response: %v", common.ErrMutationFailed, err)
	}
	return doc, nil
}

func (c *Client) ApproveDocument(ctx context.Context, id string, final entity.ExtractedFields) (entity.Document, error) {
	raw, err := c.sendJSON(ctx, http.MethodPost, "/v1/receipts/"+url.PathEscape(id)+"/approve", map[string]any{"fields": final})
	if err != nil {
		return entity.Document{}, fmt.Errorf("%w: approve document: %v", common.ErrMutationFailed, err)
	}
	var doc entity.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entity.Document{}, fmt.Errorf("%w: decode response: %v", common.ErrMutationFailed, err)
	}
	return doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	reqID := requestID(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/v1/receipts/"+url.PathEscape(id)), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", common.ErrMutationFailed, err)
	}
	if _, err := c.do(req, reqID); err != nil {
		return fmt.Errorf("%w: delete document: %v", common.ErrMutationFailed, err)
	}
	return nil
}

func (c *Client) FetchStatistics(ctx context.Context) (entity.Statistics, error) {
	var stats entity.Statistics
	if err := c.getJSON(ctx, "/v1/stats", nil, &stats); err != nil {
		return entity.Statistics{}, fmt.Errorf("%w: fetch statistics: %v", common.ErrFetchFailed, err)
	}
	return stats, nil
}

// getJSON issues a GET and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqID := requestID(ctx)
	u := c.url(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	raw, err := c.do(req, reqID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sendJSON issues a request with a JSON body and returns the raw 2xx body.
func (c *Client) sendJSON(ctx context.Context, method, path string, body any) ([]byte, error) {
	reqID := requestID(ctx)
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, reqID)
}

// do applies auth and rate limiting, sends the request, and returns the
// raw body. Non-2xx responses come back as *statusError.
func (c *Client) do(req *http.Request, reqID string) ([]byte, error) {
	start := time.Now()

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.log.Info("api.http.request",
		"req_id", reqID,
		"method", req.Method,
		"url", req.URL.String(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("api.http.send_error",
			"req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("api.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("api.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func requestID(ctx context.Context) string {
	if id := common.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.code)
	}
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}
