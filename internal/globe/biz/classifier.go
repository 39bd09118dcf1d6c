package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"go.uber.org/zap"
)

// ErrQueryRequired 查询为空
var ErrQueryRequired = errors.New("query is required")

const classifyPrompt = `For the app idea %q, provide a JSON object with the following structure:
{
  "globeData": {
    "existing": [array of ISO 3166-1 alpha-2 country codes where the app already exists],
    "potential": [array of ISO 3166-1 alpha-2 country codes where the app has high potential],
    "challenging": [array of ISO 3166-1 alpha-2 country codes where the app might face challenges]
  },
  "analysis": {
    "existing": "Brief explanation of why the app exists in these markets",
    "potential": "Brief explanation of why these markets have high potential",
    "challenging": "Brief explanation of why these markets might be challenging"
  }
}
Ensure each array has at least one country code, and provide concise explanations.`

var classifySchema = llm.MustCompileSchema("globe_classification", `{
	"type": "object",
	"required": ["globeData"],
	"definitions": {
		"codes": {"type": "array", "items": {"type": "string"}},
		"text":  {"type": ["string", "number", "boolean", "null"]}
	},
	"properties": {
		"globeData": {
			"type": "object",
			"required": ["existing", "potential", "challenging"],
			"properties": {
				"existing":    {"$ref": "#/definitions/codes"},
				"potential":   {"$ref": "#/definitions/codes"},
				"challenging": {"$ref": "#/definitions/codes"}
			}
		},
		"analysis": {
			"type": ["object", "null"],
			"properties": {
				"existing":    {"$ref": "#/definitions/text"},
				"potential":   {"$ref": "#/definitions/text"},
				"challenging": {"$ref": "#/definitions/text"}
			}
		}
	}
}`)

// Classifier 基于 LLM 的国家市场分类器
type Classifier struct {
	llm     llm.Completer
	retries int
}

// NewClassifier 创建分类器
func NewClassifier(completer llm.Completer, decodeRetries int) *Classifier {
	return &Classifier{llm: completer, retries: decodeRetries}
}

// Classify 调用一次 LLM；解析失败直接返回错误，不做兜底分类
func (c *Classifier) Classify(ctx context.Context, idea string) (*GlobeResult, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrQueryRequired
	}

	result, err := llm.CompleteJSON[GlobeResult](ctx, c.llm, llm.CompletionRequest{
		Step:      "globe",
		Prompt:    fmt.Sprintf(classifyPrompt, idea),
		MaxTokens: 500,
	}, classifySchema, c.retries)
	if err != nil {
		return nil, fmt.Errorf("classify markets: %w", err)
	}

	result.GlobeData.Normalize()
	logger.FromContext(ctx).Debug("globe data generated",
		zap.Strings("existing", result.GlobeData.Existing),
		zap.Strings("potential", result.GlobeData.Potential),
		zap.Strings("challenging", result.GlobeData.Challenging),
	)
	return result, nil
}
