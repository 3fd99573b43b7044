package main

import (
	"fmt"
	"os"
	"time"

	"codepractice/internal/common/cache"
	"codepractice/internal/common/db"
	"codepractice/internal/common/mq"
	"codepractice/internal/common/storage"
	"codepractice/internal/gateway/middleware"
	"codepractice/internal/judge/gateway"
	"codepractice/internal/judge/language"
	"codepractice/internal/judge/poller"
	"codepractice/internal/judge/runner"
	"codepractice/internal/submit/service"
	"codepractice/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 120 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultSweepInterval   = time.Minute
)

// Environment variables that override the YAML file.
const (
	envJudgeURL  = "JUDGE0_API_URL"
	envJudgeKey  = "JUDGE0_API_KEY"
	envJWTSecret = "JUDGE_JWT_SECRET"
	envMySQLDSN  = "MYSQL_DSN"
	envRedisAddr = "REDIS_ADDR"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// JudgeConfig groups remote judge, polling and runner settings.
type JudgeConfig struct {
	Gateway  gateway.Config `yaml:"gateway"`
	Poll     poller.Config  `yaml:"poll"`
	Runner   runner.Config  `yaml:"runner"`
	WrapMode string         `yaml:"wrapMode"`
}

// AuthConfig holds access token validation settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// RateLimitConfig holds per-route limits.
type RateLimitConfig struct {
	RedisTimeout time.Duration              `yaml:"redisTimeout"`
	Execute      middleware.RateLimitPolicy `yaml:"execute"`
	Submit       middleware.RateLimitPolicy `yaml:"submit"`
}

// SubmitConfig holds submission settings.
type SubmitConfig struct {
	SourceBucket       string                `yaml:"sourceBucket"`
	SourceKeyPrefix    string                `yaml:"sourceKeyPrefix"`
	VerdictTopic       string                `yaml:"verdictTopic"`
	MaxCodeBytes       int                   `yaml:"maxCodeBytes"`
	MaxInputBytes      int                   `yaml:"maxInputBytes"`
	SubmissionCacheTTL time.Duration         `yaml:"submissionCacheTTL"`
	SubmissionEmptyTTL time.Duration         `yaml:"submissionEmptyTTL"`
	Timeouts           service.TimeoutConfig `yaml:"timeouts"`
}

// AppConfig holds judge-api configuration.
type AppConfig struct {
	Server    ServerConfig          `yaml:"server"`
	Logger    logger.Config         `yaml:"logger"`
	Database  db.MySQLConfig        `yaml:"database"`
	Redis     cache.RedisConfig     `yaml:"redis"`
	Kafka     mq.KafkaConfig        `yaml:"kafka"`
	MinIO     storage.MinIOConfig   `yaml:"minio"`
	Judge     JudgeConfig           `yaml:"judge"`
	Auth      AuthConfig            `yaml:"auth"`
	RateLimit RateLimitConfig       `yaml:"rateLimit"`
	CORS      middleware.CORSConfig `yaml:"cors"`
	Submit    SubmitConfig          `yaml:"submit"`
}

// RedisEnabled reports whether a Redis address is configured.
func (c *AppConfig) RedisEnabled() bool { return c.Redis.Addr != "" }

// KafkaEnabled reports whether verdict events should be published.
func (c *AppConfig) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// MinIOEnabled reports whether submitted sources should be archived.
func (c *AppConfig) MinIOEnabled() bool { return c.MinIO.Endpoint != "" }

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string, getenv func(string) string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg, getenv)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := getenv(envJudgeURL); v != "" {
		cfg.Judge.Gateway.BaseURL = v
	}
	if v := getenv(envJudgeKey); v != "" {
		cfg.Judge.Gateway.APIKey = v
	}
	if v := getenv(envJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := getenv(envMySQLDSN); v != "" {
		cfg.Database.DSN = v
	}
	if v := getenv(envRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Judge.Poll.Interval == 0 {
		cfg.Judge.Poll.Interval = poller.DefaultInterval
	}
	if cfg.Judge.Poll.MaxAttempts == 0 {
		cfg.Judge.Poll.MaxAttempts = poller.DefaultMaxAttempts
	}
	if cfg.Judge.Runner.Parallelism == 0 {
		cfg.Judge.Runner.Parallelism = 1
	}

	if cfg.RateLimit.RedisTimeout == 0 {
		cfg.RateLimit.RedisTimeout = 200 * time.Millisecond
	}
	if cfg.RateLimit.Execute == (middleware.RateLimitPolicy{}) {
		cfg.RateLimit.Execute = middleware.DefaultRateLimitPolicy()
	}
	if cfg.RateLimit.Submit == (middleware.RateLimitPolicy{}) {
		cfg.RateLimit.Submit = middleware.DefaultRateLimitPolicy()
	}
	if cfg.RateLimit.Execute.Window == 0 {
		cfg.RateLimit.Execute.Window = time.Minute
	}
	if cfg.RateLimit.Submit.Window == 0 {
		cfg.RateLimit.Submit.Window = time.Minute
	}

	if cfg.Submit.MaxCodeBytes == 0 {
		cfg.Submit.MaxCodeBytes = 64 * 1024
	}
	if cfg.Submit.MaxInputBytes == 0 {
		cfg.Submit.MaxInputBytes = 64 * 1024
	}
	if cfg.Submit.SubmissionCacheTTL == 0 {
		cfg.Submit.SubmissionCacheTTL = 30 * time.Minute
	}
	if cfg.Submit.SubmissionEmptyTTL == 0 {
		cfg.Submit.SubmissionEmptyTTL = 5 * time.Minute
	}
	if cfg.Submit.Timeouts.DB == 0 {
		cfg.Submit.Timeouts.DB = 3 * time.Second
	}
	if cfg.Submit.Timeouts.MQ == 0 {
		cfg.Submit.Timeouts.MQ = 3 * time.Second
	}
	if cfg.Submit.Timeouts.Storage == 0 {
		cfg.Submit.Timeouts.Storage = 5 * time.Second
	}
	if cfg.Submit.SourceBucket == "" {
		cfg.Submit.SourceBucket = cfg.MinIO.Bucket
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required (set %s)", envMySQLDSN)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (set %s)", envJWTSecret)
	}
	if _, err := language.ParseWrapMode(cfg.Judge.WrapMode); err != nil {
		return err
	}
	if cfg.MinIOEnabled() && cfg.Submit.SourceBucket == "" {
		return fmt.Errorf("minio bucket is required when minio is configured")
	}
	return nil
}
