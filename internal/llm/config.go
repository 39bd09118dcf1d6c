package llm

import (
	"errors"
	"time"
)

// Config OpenAI 兼容补全服务配置
type Config struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"` // 留空使用官方地址
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"` // 单次补全超时
	Temperature   float32       `mapstructure:"temperature"`
	JSONMode      bool          `mapstructure:"json_mode"`      // 请求 response_format=json_object
	DecodeRetries int           `mapstructure:"decode_retries"` // 输出无法解析时的重试次数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Model:         "gpt-3.5-turbo",
		Timeout:       60 * time.Second,
		Temperature:   0.7,
		JSONMode:      true,
		DecodeRetries: 0,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("llm api_key is required (OPENAI_API_KEY)")
	}
	if c.Model == "" {
		return errors.New("llm model is required")
	}
	if c.Timeout <= 0 {
		return errors.New("llm timeout must be > 0")
	}
	if c.DecodeRetries < 0 {
		return errors.New("llm decode_retries must be >= 0")
	}
	return nil
}
