package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/app-idea-analyzer/internal/globe/biz"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/response"
	"go.uber.org/zap"
)

// GlobeService 地球视图 HTTP 服务
type GlobeService struct {
	classifier *biz.Classifier
	renderer   *biz.Renderer
	logger     *logger.Logger
}

// NewGlobeService 创建地球视图服务
func NewGlobeService(classifier *biz.Classifier, renderer *biz.Renderer, logger *logger.Logger) *GlobeService {
	return &GlobeService{
		classifier: classifier,
		renderer:   renderer,
		logger:     logger,
	}
}

// RegisterRoutes 注册路由
func (s *GlobeService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/globe-data", s.GlobeData)
	r.POST("/globe-render", s.Render)
}

// GlobeData 按市场类型对国家分类
func (s *GlobeService) GlobeData(c *gin.Context) {
	var req GlobeDataRequest
	_ = c.ShouldBindQuery(&req)

	result, err := s.classifier.Classify(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, biz.ErrQueryRequired) {
			response.ErrorWithCode(c, apperrors.ErrQueryRequired)
			return
		}
		logger.FromContext(c.Request.Context()).Error("globe data error",
			zap.String("query", req.Query),
			zap.Error(err),
		)
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrGlobeDataFailed))
		return
	}

	response.Success(c, result)
}

// Render 计算球面逐顶点颜色
func (s *GlobeService) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrGlobeRenderParams))
		return
	}
	if req.WidthSegments == 0 {
		req.WidthSegments = biz.DefaultSegments
	}
	if req.HeightSegments == 0 {
		req.HeightSegments = biz.DefaultSegments
	}

	req.GlobeData.Normalize()
	mesh, err := s.renderer.Mesh(req.GlobeData, req.WidthSegments, req.HeightSegments)
	if err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrGlobeRenderParams))
		return
	}
	if len(mesh.UnknownCodes) > 0 {
		logger.FromContext(c.Request.Context()).Warn("country codes not in boundary table",
			zap.Strings("codes", mesh.UnknownCodes),
		)
	}

	response.Success(c, mesh)
}
