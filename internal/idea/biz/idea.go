package biz

import (
	"context"
	"strings"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	// DefaultTopIdeas 排行榜默认条数
	DefaultTopIdeas = 5
	// MaxTopIdeas 排行榜最大条数
	MaxTopIdeas = 50
	// MaxAppNameWords 应用名最多单词数
	MaxAppNameWords = 3
)

// Category 应用分类
type Category string

const (
	CategorySocial        Category = "Social"
	CategoryProductivity  Category = "Productivity"
	CategoryEntertainment Category = "Entertainment"
	CategoryEducation     Category = "Education"
	CategoryHealthFitness Category = "Health & Fitness"
	CategoryFinance       Category = "Finance"
	CategoryTravel        Category = "Travel"
	CategoryOther         Category = "Other"
)

// Categories 全部分类，顺序即提示词中的顺序
var Categories = []Category{
	CategorySocial,
	CategoryProductivity,
	CategoryEntertainment,
	CategoryEducation,
	CategoryHealthFitness,
	CategoryFinance,
	CategoryTravel,
	CategoryOther,
}

// NormalizeCategory 大小写不敏感匹配，未知分类归为 Other
func NormalizeCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// NormalizeAppName 去除多余空白并截断到 MaxAppNameWords 个单词
func NormalizeAppName(s string) string {
	words := strings.Fields(s)
	if len(words) > MaxAppNameWords {
		words = words[:MaxAppNameWords]
	}
	return strings.Join(words, " ")
}

// Idea 已记录的应用创意，AppName 唯一
type Idea struct {
	AppName     string    `json:"appName"`
	Idea        string    `json:"idea"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Searches    int64     `json:"searches"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IdeaDetails 模型从用户输入中提炼的信息
type IdeaDetails struct {
	AppName     string   `json:"appName"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// IdeaRepo 创意存储接口
type IdeaRepo interface {
	// Upsert 不存在则插入（searches=1），存在则 searches 原子加一；描述字段只在插入时写入
	Upsert(ctx context.Context, idea *Idea) error
	// ListTop 按 searches 降序返回前 n 条
	ListTop(ctx context.Context, n int) ([]*Idea, error)
}

// DetailsGenerator 生成创意详情
type DetailsGenerator interface {
	Generate(ctx context.Context, userInput string) (*IdeaDetails, error)
}

// IdeaUseCase 创意用例
type IdeaUseCase struct {
	repo      IdeaRepo
	generator DetailsGenerator
	logger    *logger.Logger
	now       func() time.Time
}

// NewIdeaUseCase 创建创意用例
func NewIdeaUseCase(repo IdeaRepo, generator DetailsGenerator, log *logger.Logger) *IdeaUseCase {
	return &IdeaUseCase{
		repo:      repo,
		generator: generator,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordIdea 提炼用户输入并计入排行榜
func (uc *IdeaUseCase) RecordIdea(ctx context.Context, userInput string) (*IdeaDetails, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, ErrUserInputRequired
	}

	details, err := uc.generator.Generate(ctx, userInput)
	if err != nil {
		return nil, err
	}

	idea := &Idea{
		AppName:     details.AppName,
		Idea:        userInput,
		Description: details.Description,
		Category:    details.Category,
		Searches:    1,
		CreatedAt:   uc.now(),
	}
	if err := uc.repo.Upsert(ctx, idea); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("idea recorded",
		zap.String("app_name", details.AppName),
		zap.String("category", string(details.Category)),
	)
	return details, nil
}

// ListTopIdeas 返回排行榜，n<=0 取默认值，超过上限时截断
func (uc *IdeaUseCase) ListTopIdeas(ctx context.Context, n int) ([]*Idea, error) {
	if n <= 0 {
		n = DefaultTopIdeas
	}
	if n > MaxTopIdeas {
		n = MaxTopIdeas
	}
	return uc.repo.ListTop(ctx, n)
}
