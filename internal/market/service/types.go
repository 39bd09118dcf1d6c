package service

import (
	"github.com/lk2023060901/app-idea-analyzer/internal/market/biz"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
)

// SearchRequest 搜索请求
type SearchRequest struct {
	Query string `form:"query"`
}

// SearchResponse 搜索响应
type SearchResponse struct {
	OriginalQuery string                `json:"originalQuery"`
	SearchQueries *biz.QueryPlan        `json:"searchQueries"`
	Results       []*types.SearchResult `json:"results"`
	Analysis      *biz.MarketAnalysis   `json:"analysis"`
}

func toSearchResponse(query string, outcome *biz.SearchOutcome) *SearchResponse {
	return &SearchResponse{
		OriginalQuery: query,
		SearchQueries: outcome.Plan,
		Results:       outcome.Results,
		Analysis:      outcome.Analysis,
	}
}
