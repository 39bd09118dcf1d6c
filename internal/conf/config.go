package conf

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/database"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/redis"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/tracing"
	"github.com/lk2023060901/app-idea-analyzer/internal/websearch/types"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	Store    StoreConfig     `mapstructure:"store"`
	LLM      llm.Config      `mapstructure:"llm"`
	Search   SearchConfig    `mapstructure:"search"`
	Globe    GlobeConfig     `mapstructure:"globe"`
	Tracing  tracing.Config  `mapstructure:"tracing"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 为空时允许任意来源且不带凭证
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // postgres, redis
}

type SearchConfig struct {
	APIKey     string             `mapstructure:"api_key"`
	BaseURL    string             `mapstructure:"base_url"`
	Timeout    time.Duration      `mapstructure:"timeout"`
	MaxResults int                `mapstructure:"max_results"`
	Providers  []ProviderSettings `mapstructure:"providers"` // order is the merge order
}

type ProviderSettings struct {
	ID            types.ProviderID    `mapstructure:"id"`
	Name          string              `mapstructure:"name"`
	Enabled       bool                `mapstructure:"enabled"`
	FailurePolicy types.FailurePolicy `mapstructure:"failure_policy"`
	Timeout       time.Duration       `mapstructure:"timeout"`     // 0 uses search.timeout
	MaxResults    int                 `mapstructure:"max_results"` // 0 uses search.max_results
	Country       string              `mapstructure:"country"`
	Language      string              `mapstructure:"language"`
}

type GlobeConfig struct {
	CountriesFile string `mapstructure:"countries_file"` // empty uses the built-in table
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns the configuration used for every key the file and the
// environment leave unset
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:      *logger.DefaultConfig(),
		Database: *database.DefaultConfig(),
		Redis:    *redis.DefaultConfig(),
		Store:    StoreConfig{Driver: StoreDriverPostgres},
		LLM:      *llm.DefaultConfig(),
		Search: SearchConfig{
			BaseURL:    "https://serpapi.com",
			Timeout:    15 * time.Second,
			MaxResults: 5,
			Providers: []ProviderSettings{
				{ID: types.ProviderGoogle, Name: "Google", Enabled: true, FailurePolicy: types.FailurePropagate},
				{ID: types.ProviderAppStore, Name: "App Store", Enabled: true, FailurePolicy: types.FailureDegrade},
				{ID: types.ProviderPlayStore, Name: "Google Play", Enabled: true, FailurePolicy: types.FailureDegrade},
			},
		},
		Tracing: *tracing.DefaultConfig(),
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// envBindings 除自动映射外额外接受的环境变量
var envBindings = map[string][]string{
	"llm.api_key":    {"LLM_API_KEY", "OPENAI_API_KEY"},
	"search.api_key": {"SEARCH_API_KEY", "SERPAPI_API_KEY"},
	"database.url":   {"DATABASE_URL"},
	"redis.url":      {"REDIS_URL"},
}

// LoadConfig reads the YAML file at path (optional when empty), applies
// .env and environment overrides and validates the result
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// loadDotEnv loads .env from the working directory when present; variables
// already set in the environment win
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// setDefaults registers every leaf of cfg as a viper default so that
// AutomaticEnv can override keys the config file does not mention
func setDefaults(v *viper.Viper, cfg *Config) error {
	var tree map[string]any
	if err := mapstructure.Decode(cfg, &tree); err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	setLeaves(v, "", tree)
	return nil
}

func setLeaves(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setLeaves(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// Validate fails fast on anything the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case StoreDriverRedis:
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics path must start with /")
	}
	return nil
}

// Validate checks the shared search settings and every provider entry
func (c *SearchConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("search api_key is required (SERPAPI_API_KEY)")
	}
	if c.Timeout <= 0 {
		return errors.New("search timeout must be > 0")
	}

	seen := make([]types.ProviderID, 0, len(c.Providers))
	for _, p := range c.ProviderConfigs() {
		if slices.Contains(seen, p.ID) {
			return fmt.Errorf("search provider %s listed twice", p.ID)
		}
		seen = append(seen, p.ID)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("search provider %s: %w", p.ID, err)
		}
	}
	if len(seen) == 0 {
		return errors.New("at least one search provider must be enabled")
	}
	return nil
}

// ProviderConfigs returns the enabled providers in configured order with
// the shared settings filled in
func (c *SearchConfig) ProviderConfigs() []*types.ProviderConfig {
	configs := make([]*types.ProviderConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		cfg := &types.ProviderConfig{
			ID:            p.ID,
			Name:          p.Name,
			APIHost:       c.BaseURL,
			APIKey:        c.APIKey,
			Timeout:       p.Timeout,
			MaxResults:    p.MaxResults,
			FailurePolicy: p.FailurePolicy,
			Country:       p.Country,
			Language:      p.Language,
		}
		if cfg.Name == "" {
			cfg.Name = string(p.ID)
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = c.Timeout
		}
		if cfg.MaxResults <= 0 {
			cfg.MaxResults = c.MaxResults
		}
		if cfg.FailurePolicy == "" {
			cfg.FailurePolicy = types.DefaultFailurePolicy(p.ID)
		}
		configs = append(configs, cfg)
	}
	return configs
}
