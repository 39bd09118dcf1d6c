package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/database"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/metrics"
)

// DriverPostgres PostgreSQL 存储驱动名
const DriverPostgres = "postgres"

// IdeaPO 创意数据库模型
type IdeaPO struct {
	ID          uint      `gorm:"primarykey"`
	AppName     string    `gorm:"size:255;not null;uniqueIndex:idx_ideas_app_name"`
	Idea        string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"size:50;not null;default:'Other'"`
	Searches    int64     `gorm:"not null;default:0;index:idx_ideas_searches,sort:desc"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (IdeaPO) TableName() string {
	return "ideas"
}

// upsertSQL 单条语句完成插入或计数加一，描述字段只在插入时写入
const upsertSQL = `INSERT INTO ideas (app_name, idea, description, category, searches, created_at, updated_at)
VALUES (?, ?, ?, ?, 1, ?, ?)
ON CONFLICT (app_name) DO UPDATE SET searches = ideas.searches + 1, updated_at = EXCLUDED.updated_at`

// IdeaRepo PostgreSQL 创意仓储实现
type IdeaRepo struct {
	db *database.DB
}

// NewIdeaRepo 创建 PostgreSQL 创意仓储
func NewIdeaRepo(db *database.DB) biz.IdeaRepo {
	return &IdeaRepo{db: db}
}

// Upsert 插入或累加搜索次数
func (r *IdeaRepo) Upsert(ctx context.Context, idea *biz.Idea) error {
	err := r.db.WithContext(ctx).Exec(upsertSQL,
		idea.AppName,
		idea.Idea,
		idea.Description,
		string(idea.Category),
		idea.CreatedAt,
		idea.CreatedAt,
	).Error

	observeUpsert(DriverPostgres, err)
	if err != nil {
		return fmt.Errorf("upsert idea %q: %w", idea.AppName, err)
	}
	return nil
}

// ListTop 按搜索次数降序获取前 n 条
func (r *IdeaRepo) ListTop(ctx context.Context, n int) ([]*biz.Idea, error) {
	var pos []IdeaPO
	err := r.db.WithContext(ctx).
		Order("searches DESC").
		Order("created_at ASC").
		Limit(n).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("list top ideas: %w", err)
	}

	ideas := make([]*biz.Idea, len(pos))
	for i := range pos {
		ideas[i] = r.toIdea(&pos[i])
	}
	return ideas, nil
}

// toIdea 转换为领域对象
func (r *IdeaRepo) toIdea(po *IdeaPO) *biz.Idea {
	return &biz.Idea{
		AppName:     po.AppName,
		Idea:        po.Idea,
		Description: po.Description,
		Category:    biz.Category(po.Category),
		Searches:    po.Searches,
		CreatedAt:   po.CreatedAt,
	}
}

func observeUpsert(driver string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.IdeaUpserts.WithLabelValues(driver, outcome).Inc()
}
