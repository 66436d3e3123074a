package entity

import "time"

// CategoryStat aggregates one category's share of the archive.
type CategoryStat struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// MonthStat aggregates one calendar month, keyed "YYYY-MM".
type MonthStat struct {
	Month  string  `json:"month"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// Statistics represents the archive-wide aggregate for data transfer
// between layers. It is replaced wholesale on every refresh; ByMonth is
// ordered most recent first.
type Statistics struct {
	TotalCount    int                     `json:"total_count"`
	TotalAmount   float64                 `json:"total_amount"`
	AverageAmount float64                 `json:"average_amount"`
	ByCategory    map[string]CategoryStat `json:"by_category,omitempty"`
	ByMonth       []MonthStat             `json:"by_month,omitempty"`
	ComputedAt    time.Time               `json:"computed_at"`
}

// Clone returns a copy that shares no map or slice with s.
func (s Statistics) Clone() Statistics {
	out := s
	if s.ByCategory != nil {
		out.ByCategory = make(map[string]CategoryStat, len(s.ByCategory))
		for k, v := range s.ByCategory {
			out.ByCategory[k] = v
		}
	}
	if len(s.ByMonth) > 0 {
		out.ByMonth = append([]MonthStat(nil), s.ByMonth...)
	}
	return out
}
