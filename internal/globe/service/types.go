package service

import "github.com/lk2023060901/app-idea-analyzer/internal/globe/biz"

// GlobeDataRequest 地球数据请求
type GlobeDataRequest struct {
	Query string `form:"query"`
}

// RenderRequest 球面着色请求，分段数缺省为 64
type RenderRequest struct {
	GlobeData      *biz.Classification `json:"globeData" binding:"required"`
	WidthSegments  int                 `json:"widthSegments"`
	HeightSegments int                 `json:"heightSegments"`
}
