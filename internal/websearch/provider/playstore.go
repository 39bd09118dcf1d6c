package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// PlayStoreProvider searches Google Play through SerpAPI's google_play engine
type PlayStoreProvider struct {
	*BaseProvider
}

// NewPlayStoreProvider creates a new Play Store provider
func NewPlayStoreProvider(config *types.ProviderConfig) (Provider, error) {
	return &PlayStoreProvider{BaseProvider: NewBaseProvider(config)}, nil
}

// Search executes an app search. Play results are grouped into sections,
// each with its own items[] array.
func (p *PlayStoreProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	if req.Query == "" {
		return nil, types.ErrEmptyQuery
	}
	start := time.Now()
	max := p.maxResults(req)

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("store", "apps")
	p.localeParams(params, "gl", "hl")

	payload, err := p.fetch(ctx, "google_play", params)
	if err != nil {
		return nil, err
	}

	sections, err := p.resultArray(payload, "organic_results")
	if err != nil {
		return nil, err
	}

	var items []gjson.Result
	for _, section := range sections {
		items = append(items, section.Get("items").Array()...)
	}

	results := collect(items, max, func(e gjson.Result) *types.SearchResult {
		link := firstString(e, "link")
		if link == "" {
			link = playDetailsLink(firstString(e, "product_id"))
		}
		return normalize(types.SourcePlayStore,
			firstString(e, "title"),
			link,
			firstString(e, "description", "snippet"),
			playSearchLink,
		)
	})

	return p.response(req, results, start), nil
}

func playDetailsLink(productID string) string {
	if productID == "" {
		return ""
	}
	return "https://play.google.com/store/apps/details?id=" + url.QueryEscape(productID)
}

func playSearchLink(title string) string {
	return "https://play.google.com/store/search?c=apps&q=" + url.QueryEscape(title)
}
