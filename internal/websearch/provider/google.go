package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// GoogleProvider searches the web through SerpAPI's google engine
type GoogleProvider struct {
	*BaseProvider
}

// NewGoogleProvider creates a new Google web search provider
func NewGoogleProvider(config *types.ProviderConfig) (Provider, error) {
	return &GoogleProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes a web search and maps organic_results[]
func (p *GoogleProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if req.Query == "" {
		return nil, types.ErrEmptyQuery
	}
	start := time.Now()
	max := p.maxResults(req)

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("num", strconv.Itoa(max))
	p.localeParams(params, "gl", "hl")

	payload, err := p.fetch(ctx, "google", params)
	if err != nil {
		return nil, err
	}

	entries, err := p.resultArray(payload, "organic_results")
	if err != nil {
		return nil, err
	}

	results := collect(entries, max, func(e gjson.Result) *types.SearchResult {
		return normalize(types.SourceGoogle,
			firstString(e, "title"),
			firstString(e, "link"),
			firstString(e, "snippet", "rich_snippet.top.extensions.0"),
			googleSearchLink,
		)
	})

	return p.response(req, results, start), nil
}

func googleSearchLink(title string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(title)
}
