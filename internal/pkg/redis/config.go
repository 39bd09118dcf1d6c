package redis

import (
	"errors"
	"time"
)

// DeployMode Redis 部署模式
type DeployMode string

const (
	ModeSingle   DeployMode = "single"   // 单机模式
	ModeSentinel DeployMode = "sentinel" // 哨兵模式
	ModeCluster  DeployMode = "cluster"  // 集群模式
)

// Config Redis 配置
type Config struct {
	// 部署模式
	Mode DeployMode `mapstructure:"mode" yaml:"mode"`

	// 连接串（REDIS_URL），仅单机模式，设置后覆盖 Addr/Username/Password/DB
	URL string `mapstructure:"url" yaml:"url"`

	// 单机模式地址 (host:port)
	Addr string `mapstructure:"addr" yaml:"addr"`

	// 哨兵模式配置
	SentinelAddrs []string `mapstructure:"sentinel_addrs" yaml:"sentinel_addrs"`
	MasterName    string   `mapstructure:"master_name" yaml:"master_name"`

	// 集群模式配置
	ClusterAddrs []string `mapstructure:"cluster_addrs" yaml:"cluster_addrs"`

	// 认证配置
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`

	// 连接池配置
	PoolSize     int `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout" yaml:"pool_timeout"`

	// 重试配置
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// 业务 key 前缀
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeSingle,
		Addr: "localhost:6379",
		DB:   0,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		MaxRetries: 3,
		KeyPrefix:  "app_idea_analyzer:",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle:
		if c.Addr == "" && c.URL == "" {
			return errors.New("redis: addr or url is required in single mode")
		}
	case ModeSentinel:
		if len(c.SentinelAddrs) == 0 {
			return errors.New("redis: sentinel_addrs is required in sentinel mode")
		}
		if c.MasterName == "" {
			return errors.New("redis: master_name is required in sentinel mode")
		}
	case ModeCluster:
		if len(c.ClusterAddrs) == 0 {
			return errors.New("redis: cluster_addrs is required in cluster mode")
		}
	default:
		return errors.New("redis: invalid mode, must be one of: single, sentinel, cluster")
	}

	if c.DB < 0 || c.DB > 15 {
		return errors.New("redis: db must be between 0 and 15")
	}
	if c.PoolSize <= 0 {
		return errors.New("redis: pool_size must be > 0")
	}
	if c.MinIdleConns < 0 || c.MinIdleConns > c.PoolSize {
		return errors.New("redis: min_idle_conns must be between 0 and pool_size")
	}
	if c.DialTimeout <= 0 || c.PoolTimeout <= 0 {
		return errors.New("redis: dial_timeout and pool_timeout must be > 0")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("redis: read_timeout and write_timeout must be >= 0")
	}
	if c.MaxRetries < 0 {
		return errors.New("redis: max_retries must be >= 0")
	}

	return nil
}
