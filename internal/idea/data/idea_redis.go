package data

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/idea/biz"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

// DriverRedis Redis 存储驱动名
const DriverRedis = "redis"

// 哈希字段
const (
	fieldIdea        = "idea"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldSearches    = "searches"
	fieldCreatedAt   = "created_at"
)

// RedisIdeaRepo Redis 创意仓储实现
// 每个创意一个哈希 idea:<appName>，排行榜为有序集合 ideas:leaderboard
type RedisIdeaRepo struct {
	client *redis.Client
}

// NewRedisIdeaRepo 创建 Redis 创意仓储
func NewRedisIdeaRepo(client *redis.Client) biz.IdeaRepo {
	return &RedisIdeaRepo{client: client}
}

func (r *RedisIdeaRepo) ideaKey(appName string) string {
	return r.client.Key("idea", appName)
}

func (r *RedisIdeaRepo) leaderboardKey() string {
	return r.client.Key("ideas", "leaderboard")
}

// Upsert 在 MULTI/EXEC 中写入描述字段（HSETNX）并累加计数
func (r *RedisIdeaRepo) Upsert(ctx context.Context, idea *biz.Idea) error {
	key := r.ideaKey(idea.AppName)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldIdea, idea.Idea)
		pipe.HSetNX(ctx, key, fieldDescription, idea.Description)
		pipe.HSetNX(ctx, key, fieldCategory, string(idea.Category))
		pipe.HSetNX(ctx, key, fieldCreatedAt, idea.CreatedAt.UTC().Format(time.RFC3339Nano))
		pipe.HIncrBy(ctx, key, fieldSearches, 1)
		pipe.ZIncrBy(ctx, r.leaderboardKey(), 1, idea.AppName)
		return nil
	})

	observeUpsert(DriverRedis, err)
	if err != nil {
		return fmt.Errorf("upsert idea %q: %w", idea.AppName, err)
	}
	return nil
}

// ListTop 从排行榜取前 n 个，再批量读取哈希
func (r *RedisIdeaRepo) ListTop(ctx context.Context, n int) ([]*biz.Idea, error) {
	members, err := r.client.ZRevRangeWithScores(ctx, r.leaderboardKey(), 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("list top ideas: %w", err)
	}
	if len(members) == 0 {
		return []*biz.Idea{}, nil
	}

	cmds := make([]*goredis.MapStringStringCmd, len(members))
	_, err = r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.HGetAll(ctx, r.ideaKey(m.Member.(string)))
		}
		return nil
	})
	if err != nil && !redis.IsNil(err) {
		return nil, fmt.Errorf("load top ideas: %w", err)
	}

	ideas := make([]*biz.Idea, 0, len(members))
	for i, m := range members {
		fields, err := cmds[i].Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		ideas = append(ideas, toIdea(m.Member.(string), m.Score, fields))
	}
	return ideas, nil
}

// toIdea 哈希字段转换为领域对象；计数以哈希为准，缺失时用排行榜分数
func toIdea(appName string, score float64, fields map[string]string) *biz.Idea {
	searches, err := strconv.ParseInt(fields[fieldSearches], 10, 64)
	if err != nil {
		searches = int64(score)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])

	return &biz.Idea{
		AppName:     appName,
		Idea:        fields[fieldIdea],
		Description: fields[fieldDescription],
		Category:    biz.Category(fields[fieldCategory]),
		Searches:    searches,
		CreatedAt:   createdAt,
	}
}
