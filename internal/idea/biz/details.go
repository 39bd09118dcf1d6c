package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
)

const detailsPrompt = `Based on the following user input, generate a JSON object with an app name (max 3 words), a brief description with key features, and a category. Choose the category from: %s.

User input: %s

Respond with a JSON object in this format:
{
  "appName": "Short App Name",
  "description": "Brief description with key features",
  "category": "Chosen Category"
}`

var detailsSchema = llm.MustCompileSchema("idea_details", `{
	"type": "object",
	"required": ["appName", "description", "category"],
	"properties": {
		"appName":     {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"category":    {"type": "string"}
	}
}`)

// IdeaDetailsGenerator 基于 LLM 的创意详情生成器
type IdeaDetailsGenerator struct {
	llm     llm.Completer
	retries int
}

// NewIdeaDetailsGenerator 创建创意详情生成器
func NewIdeaDetailsGenerator(completer llm.Completer, decodeRetries int) *IdeaDetailsGenerator {
	return &IdeaDetailsGenerator{llm: completer, retries: decodeRetries}
}

// Generate 调用一次 LLM；应用名截断到三个单词，分类归一化
func (g *IdeaDetailsGenerator) Generate(ctx context.Context, userInput string) (*IdeaDetails, error) {
	details, err := llm.CompleteJSON[IdeaDetails](ctx, g.llm, llm.CompletionRequest{
		Step:      "idea_details",
		Prompt:    fmt.Sprintf(detailsPrompt, categoryList(), userInput),
		MaxTokens: 150,
	}, detailsSchema, g.retries)
	if err != nil {
		return nil, err
	}

	details.AppName = NormalizeAppName(details.AppName)
	if details.AppName == "" {
		return nil, &llm.MalformedOutputError{Step: "idea_details", Reason: ErrInvalidAppName.Error()}
	}
	details.Description = strings.TrimSpace(details.Description)
	details.Category = NormalizeCategory(string(details.Category))
	return details, nil
}

func categoryList() string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories[:len(Categories)-1] {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ") + ", or " + string(CategoryOther)
}
