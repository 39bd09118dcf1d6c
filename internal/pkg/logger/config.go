package logger

import (
	"errors"
	"slices"
	"strings"
)

// Config defines the logger configuration
type Config struct {
	Level            string     `mapstructure:"level"`  // debug, info, warn, error
	Format           string     `mapstructure:"format"` // json, console
	Output           string     `mapstructure:"output"` // console, file, both
	File             FileConfig `mapstructure:"file"`
	EnableCaller     bool       `mapstructure:"enable_caller"`
	EnableStacktrace bool       `mapstructure:"enable_stacktrace"` // stacktrace for error level and above
}

// FileConfig defines rotated file output
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxAge     int    `mapstructure:"max_age"`  // days
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var validLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:            "info",
		Format:           "json",
		Output:           "console",
		EnableCaller:     true,
		EnableStacktrace: true,
		File: FileConfig{
			Filename:   "logs/app-idea-analyzer.log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

// Validate validates the logger configuration
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return errors.New("invalid log level, must be one of: " + strings.Join(validLevels, ", "))
	}

	if c.Format != "json" && c.Format != "console" {
		return errors.New("invalid log format, must be 'json' or 'console'")
	}

	switch c.Output {
	case "console":
	case "file", "both":
		if c.File.Filename == "" {
			return errors.New("log file filename is required when output is 'file' or 'both'")
		}
		if c.File.MaxSize <= 0 {
			return errors.New("log file max_size must be greater than 0")
		}
		if c.File.MaxAge <= 0 {
			return errors.New("log file max_age must be greater than 0")
		}
		if c.File.MaxBackups < 0 {
			return errors.New("log file max_backups must be greater than or equal to 0")
		}
	default:
		return errors.New("invalid log output, must be 'console', 'file' or 'both'")
	}

	return nil
}
