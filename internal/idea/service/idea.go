package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/response"
	"go.uber.org/zap"
)

// IdeaService 创意排行榜 HTTP 服务
type IdeaService struct {
	uc     *biz.IdeaUseCase
	logger *logger.Logger
}

// NewIdeaService 创建创意服务
func NewIdeaService(uc *biz.IdeaUseCase, logger *logger.Logger) *IdeaService {
	return &IdeaService{
		uc:     uc,
		logger: logger,
	}
}

// RegisterRoutes 注册路由
func (s *IdeaService) RegisterRoutes(r *gin.RouterGroup) {
	ideas := r.Group("/top-ideas")
	{
		ideas.GET("", s.ListTopIdeas)
		ideas.POST("", s.RecordIdea)
	}
}

// ListTopIdeas 获取排行榜
func (s *IdeaService) ListTopIdeas(c *gin.Context) {
	var req ListTopIdeasRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams)
		return
	}

	ideas, err := s.uc.ListTopIdeas(c.Request.Context(), req.Limit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("failed to list top ideas", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrIdeaListFailed)
		return
	}

	response.Success(c, ideas)
}

// RecordIdea 提炼并记录创意
func (s *IdeaService) RecordIdea(c *gin.Context) {
	var req RecordIdeaRequest
	// 请求体无法解析时按空输入处理
	_ = c.ShouldBindJSON(&req)

	details, err := s.uc.RecordIdea(c.Request.Context(), req.UserInput)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, toRecordIdeaResponse(details))
}

// handleError 统一错误处理
func (s *IdeaService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrUserInputRequired):
		response.ErrorWithCode(c, apperrors.ErrUserInputRequired)
	default:
		logger.FromContext(c.Request.Context()).Error("failed to record idea", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrIdeaSaveFailed)
	}
}
