package entity

// Page is one slice of the archive listing.
type Page struct {
	Items   []Document `json:"items"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
}
