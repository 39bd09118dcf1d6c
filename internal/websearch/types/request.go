package types

// SearchRequest represents a search request
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"` // result count hint, also the cap
}
