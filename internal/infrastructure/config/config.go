package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"touille/internal/pkg/common"
)

// 支援的設定值
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Downloader  DownloaderConfig  `mapstructure:"downloader"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Log         LogConfig         `mapstructure:"log"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig 資料庫設定，max_conns 為基本連線數加上可溢出的連線數
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// LLMConfig 選擇語言模型供應商
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig Anthropic 配置
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// DownloaderConfig yt-dlp 設定
type DownloaderConfig struct {
	Binary  string        `mapstructure:"binary"`
	Format  string        `mapstructure:"format"`
	TempDir string        `mapstructure:"temp_dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TranscriberConfig whisper 設定
type TranscriberConfig struct {
	Binary   string        `mapstructure:"binary"`
	Model    string        `mapstructure:"model"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 處理隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// envBindings 慣用的環境變數名稱
var envBindings = map[string]string{
	"server.port":          "PORT",
	"database.url":         "DATABASE_URL",
	"database.driver":      "DATABASE_DRIVER",
	"llm.provider":         "LLM_PROVIDER",
	"llm.max_tokens":       "MODEL_MAX_TOKENS",
	"anthropic.api_key":    "ANTHROPIC_API_KEY",
	"anthropic.model":      "ANTHROPIC_MODEL",
	"openrouter.api_key":   "OPENROUTER_API_KEY",
	"openrouter.model":     "OPENROUTER_MODEL",
	"cache.enabled":        "CACHE_ENABLED",
	"cache.driver":         "CACHE_DRIVER",
	"cache.redis_addr":     "REDIS_ADDR",
	"cache.redis_password": "REDIS_PASSWORD",
	"rate_limit.enabled":   "RATE_LIMIT_ENABLED",
	"rate_limit.requests":  "RATE_LIMIT_REQUESTS",
	"rate_limit.window":    "RATE_LIMIT_WINDOW",
	"log.level":            "LOG_LEVEL",
	"log.dir":              "LOG_DIR",
}

// Load 載入設定，configFile 為空時只讀取環境變數與 .env
func Load(configFile string) (*Config, error) {
	// 加載 .env 文件，不存在時略過
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrConfiguration.Wrap(fmt.Errorf("failed to load .env: %w", err))
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, common.ErrConfiguration.Wrap(fmt.Errorf("failed to read config file: %w", err))
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, common.ErrConfiguration.Wrap(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	// 驗證設定範圍
	if err := validateConfig(&config); err != nil {
		return nil, common.ErrConfiguration.Wrap(fmt.Errorf("invalid config: %w", err))
	}

	return &config, nil
}

// RequireServices 確認連線字串與所選模型的憑證都已設定，服務啟動前必須通過
func (c *Config) RequireServices() error {
	if c.Database.URL == "" {
		return common.ErrConfiguration.WithMessage("DATABASE_URL is not configured")
	}
	if c.ModelAPIKey() == "" {
		return common.ErrConfiguration.WithMessage(strings.ToUpper(c.LLM.Provider) + "_API_KEY is not configured")
	}
	return nil
}

// ModelAPIKey 回傳所選供應商的 API Key
func (c *Config) ModelAPIKey() string {
	if c.LLM.Provider == ProviderOpenRouter {
		return c.OpenRouter.APIKey
	}
	return c.Anthropic.APIKey
}

// ModelName 回傳所選供應商的模型名稱
func (c *Config) ModelName() string {
	if c.LLM.Provider == ProviderOpenRouter {
		return c.OpenRouter.Model
	}
	return c.Anthropic.Model
}

// Summary 啟動時可安全輸出的設定摘要
func (c *Config) Summary() map[string]string {
	return map[string]string{
		"database_driver": c.Database.Driver,
		"llm_provider":    c.LLM.Provider,
		"model":           c.ModelName(),
		"model_key":       maskAPIKey(c.ModelAPIKey()),
		"cache":           fmt.Sprintf("%t/%s", c.Cache.Enabled, c.Cache.Driver),
	}
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "touille")

	// 伺服器設定
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10m")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 資料庫設定
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)

	// 模型設定
	v.SetDefault("llm.provider", ProviderAnthropic)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.model", "anthropic/claude-sonnet-4")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	// 外部工具設定
	v.SetDefault("downloader.binary", "yt-dlp")
	v.SetDefault("downloader.format", "mp4")
	v.SetDefault("downloader.temp_dir", "")
	v.SetDefault("downloader.timeout", "5m")
	v.SetDefault("transcriber.binary", "whisper")
	v.SetDefault("transcriber.model", "base")
	v.SetDefault("transcriber.language", "")
	v.SetDefault("transcriber.timeout", "10m")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 32)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	// 日誌設定
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}

	switch config.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}
	if config.Database.MaxConns <= 0 || config.Database.MinConns < 0 || config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("invalid database pool size %d/%d", config.Database.MinConns, config.Database.MaxConns)
	}

	switch config.LLM.Provider {
	case ProviderAnthropic, ProviderOpenRouter:
	default:
		return fmt.Errorf("unsupported llm provider %q", config.LLM.Provider)
	}
	if config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid llm max tokens")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Driver {
		case CacheMemory, CacheRedis:
		default:
			return fmt.Errorf("unsupported cache driver %q", config.Cache.Driver)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
