// Package config loads application configuration from config.yaml and the
// COMPVAL_* environment, and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // pgx DSN for postgres
	Path        string `yaml:"path" mapstructure:"path"`                 // file path for sqlite
}

// AnthropicConfig holds Anthropic API settings for the extraction and
// narrative collaborators.
type AnthropicConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	Model          string `yaml:"model" mapstructure:"model"`
	MaxTokens      int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	CacheTTL       string `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RequestsPerMin int    `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// BatchConfig bounds a comparable batch run.
type BatchConfig struct {
	MaxComparables   int `yaml:"max_comparables" mapstructure:"max_comparables"`
	ItemTimeoutSecs  int `yaml:"item_timeout_secs" mapstructure:"item_timeout_secs"`
	TotalTimeoutSecs int `yaml:"total_timeout_secs" mapstructure:"total_timeout_secs"`
	RetryAttempts    int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ItemTimeout returns the per-item extraction timeout.
func (b BatchConfig) ItemTimeout() time.Duration {
	return time.Duration(b.ItemTimeoutSecs) * time.Second
}

// TotalTimeout returns the overall batch wall-clock budget.
func (b BatchConfig) TotalTimeout() time.Duration {
	return time.Duration(b.TotalTimeoutSecs) * time.Second
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	Locale string `yaml:"locale" mapstructure:"locale"` // BCP 47 tag for number formatting
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "compval.db")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.cache_ttl", "5m")
	v.SetDefault("anthropic.requests_per_min", 30)
	v.SetDefault("batch.max_comparables", 10)
	v.SetDefault("batch.item_timeout_secs", 60)
	v.SetDefault("batch.total_timeout_secs", 300)
	v.SetDefault("batch.retry_attempts", 3)
	v.SetDefault("report.locale", "tr")
	v.SetDefault("report.out_dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings that must be present before a batch can start.
// A missing API key is a batch-level fatal error: it is reported once,
// before any item is attempted.
func (c *Config) Validate() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required (set COMPVAL_ANTHROPIC_KEY)")
	}
	if c.Batch.MaxComparables <= 0 {
		return eris.New("config: batch.max_comparables must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
