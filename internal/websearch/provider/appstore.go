package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// AppStoreProvider searches the Apple App Store through SerpAPI's
// apple_app_store engine
type AppStoreProvider struct {
	*BaseProvider
}

// NewAppStoreProvider creates a new App Store provider
func NewAppStoreProvider(config *types.ProviderConfig) (Provider, error) {
	return &AppStoreProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes an app search and maps organic_results[]
func (p *AppStoreProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if req.Query == "" {
		return nil, types.ErrEmptyQuery
	}
	start := time.Now()
	max := p.maxResults(req)

	params := url.Values{}
	params.Set("term", req.Query)
	params.Set("num", strconv.Itoa(max))
	p.localeParams(params, "country", "lang")

	payload, err := p.fetch(ctx, "apple_app_store", params)
	if err != nil {
		return nil, err
	}

	entries, err := p.resultArray(payload, "organic_results")
	if err != nil {
		return nil, err
	}

	results := collect(entries, max, func(e gjson.Result) *types.SearchResult {
		return normalize(types.SourceAppStore,
			firstString(e, "title"),
			firstString(e, "link"),
			firstString(e, "description", "snippet"),
			appStoreSearchLink,
		)
	})

	return p.response(req, results, start), nil
}

func appStoreSearchLink(title string) string {
	return "https://apps.apple.com/search?term=" + url.QueryEscape(title)
}
