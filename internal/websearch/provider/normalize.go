package provider

import (
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/tidwall/gjson"
)

// MaxSnippetLength bounds SearchResult.Snippet in runes, ellipsis included
const MaxSnippetLength = 200

const ellipsis = "..."

// truncate cuts s so that the result, ellipsis included, is at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	keep := max - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return strings.TrimRight(string(runes[:keep]), " ") + ellipsis
}

// firstString returns the first non-blank string among the given paths
func firstString(entry gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := strings.TrimSpace(entry.Get(p).String()); v != "" {
			return v
		}
	}
	return ""
}

// normalize builds a SearchResult or returns nil when title or text is missing
func normalize(source types.Source, title, link, text string, fallbackLink func(title string) string) *types.SearchResult {
	if title == "" || text == "" {
		return nil
	}
	if link == "" {
		link = fallbackLink(title)
	}
	return &types.SearchResult{
		Title:   title,
		Link:    link,
		Snippet: truncate(text, MaxSnippetLength),
		Source:  source,
	}
}

// collect maps entries until max results are gathered
func collect(entries []gjson.Result, max int, fn func(gjson.Result) *types.SearchResult) []*types.SearchResult {
	results := make([]*types.SearchResult, 0, max)
	for _, e := range entries {
		if len(results) >= max {
			break
		}
		if r := fn(e); r != nil {
			results = append(results, r)
		}
	}
	return results
}
