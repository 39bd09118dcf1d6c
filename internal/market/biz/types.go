package biz

import (
	"encoding/json"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
)

// NoResultsAnalysis 所有搜索源均无结果时返回的固定分析文本
const NoResultsAnalysis = "No results found"

// QueryPlan 针对三个搜索源的查询语句
type QueryPlan struct {
	GoogleQuery    string `json:"googleQuery"`
	AppStoreQuery  string `json:"appStoreQuery"`
	PlayStoreQuery string `json:"playStoreQuery"`
}

// QueryFor 返回指定搜索源使用的查询语句
func (p *QueryPlan) QueryFor(id types.ProviderID) string {
	switch id {
	case types.ProviderGoogle:
		return p.GoogleQuery
	case types.ProviderAppStore:
		return p.AppStoreQuery
	case types.ProviderPlayStore:
		return p.PlayStoreQuery
	}
	return ""
}

// ExistingApp 已存在的同类应用
type ExistingApp struct {
	Name        llm.Text `json:"name"`
	Description llm.Text `json:"description"`
	MarketShare llm.Text `json:"marketShare,omitempty"`
	Revenue     llm.Text `json:"revenue,omitempty"`
}

// MarketOverview 市场概况
type MarketOverview struct {
	TotalMarketSize llm.Text     `json:"totalMarketSize,omitempty"`
	GrowthRate      llm.Text     `json:"growthRate,omitempty"`
	KeyPlayers      llm.TextList `json:"keyPlayers,omitempty"`
	Trends          llm.TextList `json:"trends,omitempty"`
}

// UserDemographics 目标用户画像
type UserDemographics struct {
	AgeGroups llm.TextList `json:"ageGroups,omitempty"`
	Regions   llm.TextList `json:"regions,omitempty"`
	Interests llm.TextList `json:"interests,omitempty"`
}

// StructuredAnalysis 结构化市场分析
type StructuredAnalysis struct {
	Summary                string           `json:"summary"`
	ExistingApps           []ExistingApp    `json:"existingApps"`
	MarketAnalysis         MarketOverview   `json:"marketAnalysis"`
	UserDemographics       UserDemographics `json:"userDemographics"`
	MonetizationStrategies llm.TextList     `json:"monetizationStrategies"`
	Challenges             llm.TextList     `json:"challenges"`
	Opportunities          llm.TextList     `json:"opportunities"`
}

// MarketAnalysis 市场分析，二选一：Structured（常规）或 Text（仅用于无结果提示）
type MarketAnalysis struct {
	Structured *StructuredAnalysis
	Text       string
}

// TextAnalysis 构造文本分析
func TextAnalysis(text string) *MarketAnalysis {
	return &MarketAnalysis{Text: text}
}

// MarshalJSON 结构化分析编码为对象，文本分析编码为字符串
func (m MarketAnalysis) MarshalJSON() ([]byte, error) {
	if m.Structured != nil {
		return json.Marshal(m.Structured)
	}
	return json.Marshal(m.Text)
}

// SearchOutcome 一次聚合搜索的结果
type SearchOutcome struct {
	Plan     *QueryPlan
	Results  []*types.SearchResult
	Analysis *MarketAnalysis
}
