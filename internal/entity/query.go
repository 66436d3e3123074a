package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/seyi-adel/receiptdesk/constants"
)

// SortField enumerates the orderable columns of the archive.
type SortField string

const (
	SortByDate    SortField = "date"
	SortByAmount  SortField = "amount"
	SortByVendor  SortField = "vendor"
	SortByCreated SortField = "created"
)

// Sort pairs an archive column with a direction.
type Sort struct {
	Field      SortField `json:"field"`
	Descending bool      `json:"descending"`
}

// DefaultSort is most-recent-first by transaction date.
func DefaultSort() Sort {
	return Sort{Field: SortByDate, Descending: true}
}

// ParseSort interprets sort expressions like "amount" or "-date",
// where a leading dash means descending.
func ParseSort(expr string) (Sort, error) {
	s := strings.TrimSpace(expr)
	desc := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	switch SortField(s) {
	case SortByDate, SortByAmount, SortByVendor, SortByCreated:
		return Sort{Field: SortField(s), Descending: desc}, nil
	}
	return Sort{}, fmt.Errorf("unknown sort field %q", expr)
}

// Criteria narrows the archive listing. The zero value matches everything.
type Criteria struct {
	Category  string                     `json:"category,omitempty"`
	FromDate  *time.Time                 `json:"from_date,omitempty"`
	ToDate    *time.Time                 `json:"to_date,omitempty"`
	Statuses  []constants.DocumentStatus `json:"statuses,omitempty"`
	MinAmount *float64                   `json:"min_amount,omitempty"`
	MaxAmount *float64                   `json:"max_amount,omitempty"`
	Query     string                     `json:"query,omitempty"`
}

// IsZero reports whether c applies no narrowing at all.
func (c Criteria) IsZero() bool {
	return c.Category == "" && c.FromDate == nil && c.ToDate == nil &&
		len(c.Statuses) == 0 && c.MinAmount == nil && c.MaxAmount == nil &&
		c.Query == ""
}

// Effective is what actually goes to the backend: a non-empty free-text
// query supersedes every structured filter.
func (c Criteria) Effective() Criteria {
	if c.Query != "" {
		return Criteria{Query: c.Query}
	}
	return c
}

// Clone returns a copy that shares no pointers or slices with c.
func (c Criteria) Clone() Criteria {
	out := c
	if c.FromDate != nil {
		t := *c.FromDate
		out.FromDate = &t
	}
	if c.ToDate != nil {
		t := *c.ToDate
		out.ToDate = &t
	}
	if c.MinAmount != nil {
		v := *c.MinAmount
		out.MinAmount = &v
	}
	if c.MaxAmount != nil {
		v := *c.MaxAmount
		out.MaxAmount = &v
	}
	if len(c.Statuses) > 0 {
		out.Statuses = append([]constants.DocumentStatus(nil), c.Statuses...)
	}
	return out
}
