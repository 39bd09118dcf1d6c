package service

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/app-idea-analyzer/internal/market/biz"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/response"
	"go.uber.org/zap"
)

// SearchService 市场搜索 HTTP 服务
type SearchService struct {
	uc     *biz.SearchUseCase
	logger *logger.Logger
}

// NewSearchService 创建市场搜索服务
func NewSearchService(uc *biz.SearchUseCase, logger *logger.Logger) *SearchService {
	return &SearchService{
		uc:     uc,
		logger: logger,
	}
}

// RegisterRoutes 注册路由
func (s *SearchService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/search", s.Search)
}

// Search 聚合搜索并生成市场分析
func (s *SearchService) Search(c *gin.Context) {
	var req SearchRequest
	_ = c.ShouldBindQuery(&req)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		response.ErrorWithCode(c, apperrors.ErrQueryRequired)
		return
	}

	outcome, err := s.uc.Aggregate(c.Request.Context(), query)
	if err != nil {
		s.handleError(c, err, req.Query)
		return
	}

	response.Success(c, toSearchResponse(req.Query, outcome))
}

// handleError 统一错误处理
func (s *SearchService) handleError(c *gin.Context, err error, query string) {
	code := apperrors.ErrSearchFailed
	var aggErr *biz.AggregationError
	switch {
	case errors.Is(err, biz.ErrEmptyQuery):
		code = apperrors.ErrQueryRequired
	case errors.As(err, &aggErr):
		code = codeForKind(aggErr.Kind)
	}

	if apperrors.IsServerError(code) {
		logger.FromContext(c.Request.Context()).Error("search failed",
			zap.String("query", query),
			zap.Int("code", code),
			zap.Error(err),
		)
	}
	response.HandleError(c, apperrors.Wrap(err, code), query)
}

func codeForKind(kind biz.ErrorKind) int {
	switch kind {
	case biz.KindSearchAPI:
		return apperrors.ErrSearchAPI
	case biz.KindUnexpectedFormat:
		return apperrors.ErrSearchUnexpectedFormat
	case biz.KindMalformedModelOutput:
		return apperrors.ErrModelOutputMalformed
	}
	return apperrors.ErrSearchFailed
}
