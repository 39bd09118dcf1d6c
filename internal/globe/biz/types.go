package biz

import (
	"strings"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
)

// Classification 按市场类型分组的国家代码（ISO 3166-1 alpha-2）
type Classification struct {
	Existing    []string `json:"existing"`
	Potential   []string `json:"potential"`
	Challenging []string `json:"challenging"`
}

// Analysis 各分组的简要说明
type Analysis struct {
	Existing    llm.Text `json:"existing"`
	Potential   llm.Text `json:"potential"`
	Challenging llm.Text `json:"challenging"`
}

// GlobeResult 地球视图数据
type GlobeResult struct {
	GlobeData Classification `json:"globeData"`
	Analysis  Analysis       `json:"analysis"`
}

// 分组为空时的兜底国家
const (
	FallbackExisting    = "US"
	FallbackPotential   = "GB"
	FallbackChallenging = "CN"
)

// Normalize 统一国家代码格式，并保证每个分组非空
func (c *Classification) Normalize() {
	c.Existing = withFallback(normalizeCodes(c.Existing), FallbackExisting)
	c.Potential = withFallback(normalizeCodes(c.Potential), FallbackPotential)
	c.Challenging = withFallback(normalizeCodes(c.Challenging), FallbackChallenging)
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}

func withFallback(codes []string, fallback string) []string {
	if len(codes) == 0 {
		return []string{fallback}
	}
	return codes
}
