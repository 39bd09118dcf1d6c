package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
)

const planPrompt = `You help founders check whether an app idea already exists.
For the app idea below, write three search queries, each tuned for one search engine:
- "googleQuery": a web search that finds existing products, startups and articles about this kind of app
- "appStoreQuery": two to four keywords to search the Apple App Store
- "playStoreQuery": two to four keywords to search the Google Play Store

App idea: %q

Respond with a JSON object in this format:
{
  "googleQuery": "...",
  "appStoreQuery": "...",
  "playStoreQuery": "..."
}`

var planSchema = llm.MustCompileSchema("query_plan", `{
	"type": "object",
	"required": ["googleQuery", "appStoreQuery", "playStoreQuery"],
	"properties": {
		"googleQuery":    {"type": "string", "pattern": "\\S"},
		"appStoreQuery":  {"type": "string", "pattern": "\\S"},
		"playStoreQuery": {"type": "string", "pattern": "\\S"}
	}
}`)

// Planner 生成查询计划
type Planner interface {
	Plan(ctx context.Context, idea string) (*QueryPlan, error)
}

// QueryPlanner 基于 LLM 的查询计划生成器
type QueryPlanner struct {
	llm     llm.Completer
	retries int
}

// NewQueryPlanner 创建查询计划生成器
func NewQueryPlanner(completer llm.Completer, decodeRetries int) *QueryPlanner {
	return &QueryPlanner{llm: completer, retries: decodeRetries}
}

// Plan 调用一次 LLM 生成三个查询
func (p *QueryPlanner) Plan(ctx context.Context, idea string) (*QueryPlan, error) {
	plan, err := llm.CompleteJSON[QueryPlan](ctx, p.llm, llm.CompletionRequest{
		Step:      "plan",
		Prompt:    fmt.Sprintf(planPrompt, idea),
		MaxTokens: 200,
	}, planSchema, p.retries)
	if err != nil {
		return nil, err
	}

	plan.GoogleQuery = strings.TrimSpace(plan.GoogleQuery)
	plan.AppStoreQuery = strings.TrimSpace(plan.AppStoreQuery)
	plan.PlayStoreQuery = strings.TrimSpace(plan.PlayStoreQuery)
	return plan, nil
}
