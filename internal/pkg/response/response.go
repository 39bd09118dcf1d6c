package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
)

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Error   string `json:"error"`             // 面向用户的错误信息
	Details string `json:"details,omitempty"` // 原始错误信息
	Query   string `json:"query,omitempty"`   // 触发错误的查询
}

// Success 成功响应（200），直接返回数据本身
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// ErrorWithCode 使用错误码的错误响应（不带详情）
func ErrorWithCode(c *gin.Context, code int) {
	c.JSON(apperrors.GetHTTPStatus(code), ErrorBody{Error: apperrors.GetMessage(code)})
}

// HandleError 统一错误处理（使用AppError）
// 客户端错误只返回固定信息，服务端错误附带 details 和 query
func HandleError(c *gin.Context, err error, query ...string) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	body := ErrorBody{Error: apperrors.GetMessage(code)}
	if apperrors.IsServerError(code) {
		body.Details = apperrors.GetDetails(err)
		if len(query) > 0 {
			body.Query = query[0]
		}
	}

	_ = c.Error(err)
	c.JSON(apperrors.GetHTTPStatus(code), body)
}
