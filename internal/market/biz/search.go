package biz

import (
	"context"
	"strings"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/metrics"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/tracing"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/provider"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Registration 注册到聚合器的搜索源
type Registration struct {
	Provider   provider.Provider
	Policy     types.FailurePolicy
	Timeout    time.Duration // 单次调用超时，0 表示沿用请求上下文
	MaxResults int
}

// SearchUseCase 聚合搜索用例
type SearchUseCase struct {
	planner       Planner
	analyzer      Analyzer
	registrations []Registration
	logger        *logger.Logger
}

// NewSearchUseCase 创建聚合搜索用例，registrations 的顺序即结果合并顺序
func NewSearchUseCase(planner Planner, analyzer Analyzer, registrations []Registration, log *logger.Logger) *SearchUseCase {
	return &SearchUseCase{
		planner:       planner,
		analyzer:      analyzer,
		registrations: registrations,
		logger:        log,
	}
}

// Aggregate 生成查询计划，并发调用所有搜索源，按注册顺序合并结果后生成分析
func (uc *SearchUseCase) Aggregate(ctx context.Context, query string) (_ *SearchOutcome, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := tracing.Start(ctx, "market.aggregate", attribute.Int("providers", len(uc.registrations)))
	defer func() { tracing.End(span, err) }()

	plan, err := uc.planner.Plan(ctx, query)
	if err != nil {
		return nil, newAggregationError("plan", "", err)
	}

	lists := make([][]*types.SearchResult, len(uc.registrations))
	g, gctx := errgroup.WithContext(ctx)
	for i, reg := range uc.registrations {
		g.Go(func() error {
			results, err := uc.searchOne(gctx, reg, plan.QueryFor(reg.Provider.GetID()))
			if err != nil {
				return newAggregationError("search", reg.Provider.GetID(), err)
			}
			lists[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*types.SearchResult, 0)
	for _, list := range lists {
		merged = append(merged, list...)
	}

	outcome := &SearchOutcome{Plan: plan, Results: merged}
	if len(merged) == 0 {
		outcome.Analysis = TextAnalysis(NoResultsAnalysis)
		return outcome, nil
	}

	analysis, err := uc.analyzer.Analyze(ctx, query, merged)
	if err != nil {
		return nil, newAggregationError("analysis", "", err)
	}
	outcome.Analysis = analysis

	logger.FromContext(ctx).Info("search aggregated",
		zap.String("query", query),
		zap.Int("results", len(merged)),
	)
	return outcome, nil
}

// searchOne 调用单个搜索源；degrade 策略下错误被吞掉并返回空列表
func (uc *SearchUseCase) searchOne(ctx context.Context, reg Registration, query string) ([]*types.SearchResult, error) {
	id := reg.Provider.GetID()
	if reg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, reg.Timeout)
		defer cancel()
	}

	ctx, span := tracing.Start(ctx, "search."+string(id), attribute.String("search.query", query))
	start := time.Now()

	resp, err := reg.Provider.Search(ctx, &types.SearchRequest{Query: query, MaxResults: reg.MaxResults})
	took := time.Since(start)
	tracing.End(span, err)

	if err != nil {
		if reg.Policy == types.FailureDegrade {
			metrics.ObserveProvider(string(id), metrics.OutcomeDegraded, took, 0)
			logger.FromContext(ctx).Warn("search provider failed, degrading to empty results",
				zap.String("provider", string(id)),
				zap.String("kind", string(Classify(err))),
				zap.Error(err),
			)
			return nil, nil
		}
		metrics.ObserveProvider(string(id), metrics.OutcomeError, took, 0)
		return nil, err
	}

	metrics.ObserveProvider(string(id), metrics.OutcomeSuccess, took, len(resp.Results))
	return resp.Results, nil
}
