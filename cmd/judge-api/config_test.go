package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codepractice/internal/judge/poller"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judge_api.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadAppConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "u:p@tcp(db:3306)/cp"
auth:
  jwtSecret: s3cret
minio:
  endpoint: "minio:9000"
  bucket: sources
`)
	cfg, err := loadAppConfig(path, nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr || cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
	if cfg.Judge.Poll.Interval != poller.DefaultInterval || cfg.Judge.Poll.MaxAttempts != poller.DefaultMaxAttempts {
		t.Fatalf("poll defaults not applied: %+v", cfg.Judge.Poll)
	}
	if cfg.RateLimit.Execute.IPMax != 10 || cfg.RateLimit.Execute.Window != time.Minute {
		t.Fatalf("rate limit defaults not applied: %+v", cfg.RateLimit.Execute)
	}
	if cfg.Submit.SourceBucket != "sources" {
		t.Fatalf("source bucket should follow minio bucket, got %q", cfg.Submit.SourceBucket)
	}
	if cfg.RedisEnabled() || cfg.KafkaEnabled() || !cfg.MinIOEnabled() {
		t.Fatalf("unexpected optional dependencies: redis=%v kafka=%v minio=%v", cfg.RedisEnabled(), cfg.KafkaEnabled(), cfg.MinIOEnabled())
	}
}

func TestLoadAppConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "from-yaml"
judge:
  gateway:
    baseURL: "http://yaml-judge"
redis:
  addr: ""
`)
	cfg, err := loadAppConfig(path, envMap(map[string]string{
		envJudgeURL:  "http://env-judge",
		envJudgeKey:  "key-1",
		envJWTSecret: "env-secret",
		envMySQLDSN:  "from-env",
		envRedisAddr: "redis:6379",
	}))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Judge.Gateway.BaseURL != "http://env-judge" || cfg.Judge.Gateway.APIKey != "key-1" {
		t.Fatalf("judge overrides not applied: %+v", cfg.Judge.Gateway)
	}
	if cfg.Database.DSN != "from-env" || cfg.Auth.JWTSecret != "env-secret" || !cfg.RedisEnabled() {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadAppConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing dsn", "auth:\n  jwtSecret: s\n"},
		{"missing secret", "database:\n  dsn: d\n"},
		{"bad wrap mode", "database:\n  dsn: d\nauth:\n  jwtSecret: s\njudge:\n  wrapMode: sometimes\n"},
		{"minio without bucket", "database:\n  dsn: d\nauth:\n  jwtSecret: s\nminio:\n  endpoint: m:9000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadAppConfig(writeConfig(t, tt.content), nil); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if _, err := loadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := loadAppConfig(filepath.Join("..", "..", "configs", "judge_api.yaml"), envMap(map[string]string{envJWTSecret: "x"}))
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if cfg.Judge.Runner.Parallelism != 4 || cfg.KafkaEnabled() || cfg.MinIOEnabled() {
		t.Fatalf("unexpected sample config: %+v", cfg.Judge)
	}
}
