package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/app-idea-analyzer/internal/conf"
)

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders = strings.Join([]string{
		"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length",
		"Content-MD5", "Content-Type", "Date", "X-Api-Version",
	}, ", ")
)

// CORS 跨域中间件
// 未配置白名单时返回 * 且不带凭证；配置后仅回显命中的来源
func CORS(cfg conf.CORSConfig) gin.HandlerFunc {
	allowAny := len(cfg.AllowedOrigins) == 0

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		switch {
		case allowAny:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(cfg.AllowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		default:
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", corsHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
