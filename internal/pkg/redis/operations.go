package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ==================== Sorted Set Operations ====================

// ZRevRangeWithScores 按分数倒序获取成员及分数
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	val, err := c.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		c.logger.Error("redis zrevrange failed",
			zap.String("key", key),
			zap.Int64("start", start),
			zap.Int64("stop", stop),
			zap.Error(err),
		)
	}
	return val, err
}

// ==================== Pipeline Operations ====================

// Pipelined 批量执行（非事务）
func (c *Client) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	cmds, err := c.rdb.Pipelined(ctx, fn)
	if err != nil && !IsNil(err) {
		c.logger.Error("redis pipeline failed", zap.Int("cmds", len(cmds)), zap.Error(err))
	}
	return cmds, err
}

// TxPipelined 以 MULTI/EXEC 事务批量执行
func (c *Client) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	cmds, err := c.rdb.TxPipelined(ctx, fn)
	if err != nil {
		c.logger.Error("redis tx pipeline failed", zap.Int("cmds", len(cmds)), zap.Error(err))
	}
	return cmds, err
}
