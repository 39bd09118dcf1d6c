package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/metrics"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/tracing"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrCompletionFailed marks transport or API failures of the completion
// service, as opposed to unusable output
var ErrCompletionFailed = errors.New("llm completion failed")

// CompletionRequest 单次补全请求
type CompletionRequest struct {
	Step      string // 调用环节，用于日志与指标（plan / analysis / globe / idea）
	Prompt    string
	MaxTokens int
}

// Completer 补全服务抽象，业务层依赖该接口
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Client go-openai 实现
type Client struct {
	api    *openai.Client
	config *Config
	logger *logger.Logger
}

// New 创建补全客户端
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout + 5*time.Second}

	return &Client{
		api:    openai.NewClientWithConfig(apiConfig),
		config: cfg,
		logger: log.Named("llm"),
	}, nil
}

// Complete 发送单条用户消息并返回首个候选内容
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	ctx, span := tracing.Start(ctx, "llm."+req.Step,
		attribute.String("llm.model", c.config.Model),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	content, err := c.complete(ctx, req)
	took := time.Since(start)
	tracing.End(span, err)

	if err != nil {
		metrics.ObserveLLM(req.Step, metrics.OutcomeError, took)
		logger.FromContext(ctx).Error("llm completion failed",
			zap.String("step", req.Step),
			zap.Duration("took", took),
			zap.Error(err),
		)
		return "", err
	}

	metrics.ObserveLLM(req.Step, metrics.OutcomeSuccess, took)
	c.logger.WithContext(ctx).Debug("llm completion finished",
		zap.String("step", req.Step),
		zap.Duration("took", took),
		zap.Int("chars", len(content)),
	)
	return content, nil
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if c.config.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", ErrCompletionFailed, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrCompletionFailed)
	}

	return resp.Choices[0].Message.Content, nil
}
