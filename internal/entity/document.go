package entity

import (
	"strconv"
	"time"

	"github.com/seyi-adel/receiptdesk/constants"
)

// ExtractedField is one OCR-extracted value with its confidence in [0,1].
type ExtractedField struct {
	Value      string  `json:"value"`
	Confidence float32 `json:"confidence"`
}

// ExtractedFields is the set of fields OCR pulls off a receipt.
// Amounts stay decimal strings on the wire; TxDate is YYYY-MM-DD.
type ExtractedFields struct {
	Vendor   ExtractedField `json:"vendor"`
	TxDate   ExtractedField `json:"tx_date"`
	Amount   ExtractedField `json:"amount"`
	Category ExtractedField `json:"category"`
}

// Document represents a receipt document for data transfer between layers.
type Document struct {
	ID           string                   `json:"id"`
	Status       constants.DocumentStatus `json:"status"`
	Fields       ExtractedFields          `json:"fields"`
	ImageURL     string                   `json:"image_url,omitempty"`
	CurrencyCode string                   `json:"currency_code"`
	NeedsReview  bool                     `json:"needs_review"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Amount parses the extracted decimal amount. Returns 0 when absent or malformed.
func (d Document) Amount() float64 {
	v, err := strconv.ParseFloat(d.Fields.Amount.Value, 64)
	if err != nil {
		return 0
	}
	return v
}

// TxTime parses the extracted transaction date.
func (d Document) TxTime() (time.Time, bool) {
	t, err := time.Parse("2006-01-02", d.Fields.TxDate.Value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
