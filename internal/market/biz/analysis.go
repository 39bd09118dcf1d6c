package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
)

const analysisPrompt = `Analyze the following search results for the app idea %q and provide a detailed analysis in JSON format:
{
  "summary": "A brief summary of the app idea and its potential",
  "existingApps": [
    {
      "name": "App name",
      "description": "Brief description",
      "marketShare": "Estimated market share",
      "revenue": "Estimated revenue if available"
    }
  ],
  "marketAnalysis": {
    "totalMarketSize": "Estimated total market size",
    "growthRate": "Estimated market growth rate",
    "keyPlayers": ["List of key players in the market"],
    "trends": ["List of current market trends"]
  },
  "userDemographics": {
    "ageGroups": ["List of primary age groups"],
    "regions": ["List of primary geographical regions"],
    "interests": ["List of relevant user interests"]
  },
  "monetizationStrategies": ["List of potential monetization strategies"],
  "challenges": ["List of potential challenges or obstacles"],
  "opportunities": ["List of potential opportunities or unique selling points"]
}
Use plain strings for every text value.
Base your analysis on the search results and your knowledge of the mobile app market.

Search results:
%s`

var analysisSchema = llm.MustCompileSchema("market_analysis", `{
	"type": "object",
	"required": ["summary"],
	"definitions": {
		"text":    {"type": ["string", "number", "boolean", "null"]},
		"strings": {"type": ["array", "string", "null"], "items": {"$ref": "#/definitions/text"}}
	},
	"properties": {
		"summary": {"type": "string", "pattern": "\\S"},
		"existingApps": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"name":        {"$ref": "#/definitions/text"},
					"description": {"$ref": "#/definitions/text"},
					"marketShare": {"$ref": "#/definitions/text"},
					"revenue":     {"$ref": "#/definitions/text"}
				}
			}
		},
		"marketAnalysis": {
			"type": ["object", "null"],
			"properties": {
				"totalMarketSize": {"$ref": "#/definitions/text"},
				"growthRate":      {"$ref": "#/definitions/text"},
				"keyPlayers":      {"$ref": "#/definitions/strings"},
				"trends":          {"$ref": "#/definitions/strings"}
			}
		},
		"userDemographics": {
			"type": ["object", "null"],
			"properties": {
				"ageGroups": {"$ref": "#/definitions/strings"},
				"regions":   {"$ref": "#/definitions/strings"},
				"interests": {"$ref": "#/definitions/strings"}
			}
		},
		"monetizationStrategies": {"$ref": "#/definitions/strings"},
		"challenges":             {"$ref": "#/definitions/strings"},
		"opportunities":          {"$ref": "#/definitions/strings"}
	}
}`)

// Analyzer 生成市场分析
type Analyzer interface {
	Analyze(ctx context.Context, idea string, results []*types.SearchResult) (*MarketAnalysis, error)
}

// AnalysisGenerator 基于 LLM 的市场分析生成器
type AnalysisGenerator struct {
	llm     llm.Completer
	retries int
}

// NewAnalysisGenerator 创建市场分析生成器
func NewAnalysisGenerator(completer llm.Completer, decodeRetries int) *AnalysisGenerator {
	return &AnalysisGenerator{llm: completer, retries: decodeRetries}
}

// Analyze 调用一次 LLM，把合并后的结果作为上下文
func (g *AnalysisGenerator) Analyze(ctx context.Context, idea string, results []*types.SearchResult) (*MarketAnalysis, error) {
	structured, err := llm.CompleteJSON[StructuredAnalysis](ctx, g.llm, llm.CompletionRequest{
		Step:      "analysis",
		Prompt:    fmt.Sprintf(analysisPrompt, idea, formatResults(results)),
		MaxTokens: 1000,
	}, analysisSchema, g.retries)
	if err != nil {
		return nil, err
	}
	return &MarketAnalysis{Structured: structured}, nil
}

// formatResults 紧凑列出标题、来源和摘要
func formatResults(results []*types.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, r.Source, r.Title, r.Snippet)
	}
	return b.String()
}
