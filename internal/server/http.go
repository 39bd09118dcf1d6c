package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/app-idea-analyzer/internal/conf"
	globeservice "github.com/lk2023060901/app-idea-analyzer/internal/globe/service"
	ideaservice "github.com/lk2023060901/app-idea-analyzer/internal/idea/service"
	marketservice "github.com/lk2023060901/app-idea-analyzer/internal/market/service"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/metrics"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/response"
	"github.com/lk2023060901/app-idea-analyzer/internal/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	searchService *marketservice.SearchService,
	ideaService *ideaservice.IdeaService,
	globeService *globeservice.GlobeService,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	skip := []string{"/health"}
	if config.Metrics.Enabled {
		skip = append(skip, config.Metrics.Path)
	}

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{
		SkipPaths:        skip,
		SkipPathPrefixes: []string{"/static/"},
	}))
	router.Use(metrics.GinMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if config.Metrics.Enabled {
		router.GET(config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API routes
	api := router.Group("/api")
	api.Use(CORS(config.Server.CORS))
	// 预检请求需要命中路由才会经过分组中间件
	api.OPTIONS("/*path", func(c *gin.Context) {})
	searchService.RegisterRoutes(api)
	ideaService.RegisterRoutes(api)
	globeService.RegisterRoutes(api)

	// UI
	index := web.Index()
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.StaticFS("/static", http.FS(web.Assets()))
	router.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, apperrors.ErrNotFound)
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		router: router,
		logger: log,
	}
}

// Handler exposes the router for tests
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
