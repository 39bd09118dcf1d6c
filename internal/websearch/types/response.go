package types

// Source names the engine a result came from
type Source string

const (
	SourceGoogle    Source = "Google"
	SourceAppStore  Source = "AppStore"
	SourcePlayStore Source = "PlayStore"
)

// SearchResponse represents a search response
type SearchResponse struct {
	Query    string          `json:"query"`
	Results  []*SearchResult `json:"results"`
	Took     int64           `json:"took"` // milliseconds
	Provider ProviderID      `json:"provider"`
}

// SearchResult represents a single normalized hit
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  Source `json:"source"`
}
