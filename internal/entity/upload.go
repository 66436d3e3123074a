package entity

import "time"

// Upload represents a receipt file staged for submission.
type Upload struct {
	SourcePath   string    `json:"source_path"`
	Filename     string    `json:"filename"`
	FileExt      string    `json:"file_ext"`
	FileSize     int64     `json:"file_size"`
	Content      []byte    `json:"-"`
	ContentHash  []byte    `json:"content_hash"`
	CurrencyHint string    `json:"currency_hint,omitempty"`
	StagedAt     time.Time `json:"staged_at"`
}
