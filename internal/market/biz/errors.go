package biz

import (
	"errors"
	"fmt"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
)

// ErrEmptyQuery 查询为空
var ErrEmptyQuery = errors.New("query is required")

// ErrorKind 聚合失败分类
type ErrorKind string

const (
	KindSearchAPI            ErrorKind = "search_api"
	KindUnexpectedFormat     ErrorKind = "unexpected_format"
	KindMalformedModelOutput ErrorKind = "malformed_model_output"
	KindGeneric              ErrorKind = "generic"
)

// AggregationError 聚合搜索失败
type AggregationError struct {
	Kind     ErrorKind
	Stage    string           // plan / search / analysis
	Provider types.ProviderID // 仅 search 阶段
	Err      error
}

func (e *AggregationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s failed (%s, %s): %v", e.Stage, e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// Classify 根据底层错误判断分类
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, types.ErrSearchAPI):
		return KindSearchAPI
	case errors.Is(err, types.ErrUnexpectedFormat):
		return KindUnexpectedFormat
	case errors.Is(err, llm.ErrMalformedOutput):
		return KindMalformedModelOutput
	}
	return KindGeneric
}

func newAggregationError(stage string, provider types.ProviderID, err error) *AggregationError {
	return &AggregationError{
		Kind:     Classify(err),
		Stage:    stage,
		Provider: provider,
		Err:      err,
	}
}
