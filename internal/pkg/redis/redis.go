package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client Redis 客户端封装
type Client struct {
	config *Config
	logger *logger.Logger
	rdb    redis.UniversalClient
}

// New 创建 Redis 客户端并做健康检查
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb, err := newUniversalClient(cfg)
	if err != nil {
		return nil, err
	}

	client := NewFromUniversal(rdb, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis client initialized successfully",
		zap.String("mode", string(cfg.Mode)),
		zap.String("addr", cfg.Addr),
	)

	return client, nil
}

// NewFromUniversal 包装已有的 go-redis 客户端（测试中使用）
func NewFromUniversal(rdb redis.UniversalClient, cfg *Config, log *logger.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{config: cfg, logger: log, rdb: rdb}
}

// newUniversalClient 根据模式构建客户端
func newUniversalClient(cfg *Config) (redis.UniversalClient, error) {
	switch cfg.Mode {
	case ModeSingle:
		opts := &redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
		if cfg.URL != "" {
			parsed, err := redis.ParseURL(cfg.URL)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid url: %w", err)
			}
			opts = parsed
		}
		opts.PoolSize = cfg.PoolSize
		opts.MinIdleConns = cfg.MinIdleConns
		opts.DialTimeout = cfg.DialTimeout
		opts.ReadTimeout = cfg.ReadTimeout
		opts.WriteTimeout = cfg.WriteTimeout
		opts.PoolTimeout = cfg.PoolTimeout
		opts.MaxRetries = cfg.MaxRetries
		return redis.NewClient(opts), nil

	case ModeSentinel:
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Username:      cfg.Username,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			MinIdleConns:  cfg.MinIdleConns,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
			PoolTimeout:   cfg.PoolTimeout,
			MaxRetries:    cfg.MaxRetries,
		}), nil

	case ModeCluster:
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			PoolTimeout:  cfg.PoolTimeout,
			MaxRetries:   cfg.MaxRetries,
		}), nil
	}

	return nil, fmt.Errorf("unsupported mode: %s", cfg.Mode)
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return ErrNotInitialized
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Error("redis ping failed", zap.Error(err))
		return err
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("close redis client failed", zap.Error(err))
		return err
	}
	c.logger.Info("redis client closed")
	return nil
}

// Key 拼接业务 key 前缀
func (c *Client) Key(parts ...string) string {
	key := c.config.KeyPrefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
