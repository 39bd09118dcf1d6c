package service

import "github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"

// RecordIdeaRequest 记录创意请求
type RecordIdeaRequest struct {
	UserInput string `json:"userInput"`
}

// RecordIdeaResponse 记录创意响应
type RecordIdeaResponse struct {
	Message     string       `json:"message"`
	AppName     string       `json:"appName"`
	Description string       `json:"description"`
	Category    biz.Category `json:"category"`
}

// ListTopIdeasRequest 排行榜查询参数
type ListTopIdeasRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func toRecordIdeaResponse(details *biz.IdeaDetails) *RecordIdeaResponse {
	return &RecordIdeaResponse{
		Message:     "Idea saved successfully",
		AppName:     details.AppName,
		Description: details.Description,
		Category:    details.Category,
	}
}
