package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var knownKeys = []string{
	"TODO_CONFIG_FILE", "APP_ENV", "HTTP_ADDR", "STORAGE_BACKEND", "DATABASE_URL", "REDIS_URL",
	"REDIS_PREFIX", "REMOTE_CONFIG_URL", "REMOTE_CONFIG_REDIS_KEY", "FLAG_FETCH_TIMEOUT",
	"FLAG_MIN_FETCH_INTERVAL", "FLAG_REFRESH_INTERVAL", "SYSTEM_COLOR_SCHEME", "RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppEnv != EnvDevelopment || cfg.StorageBackend != BackendLocal || cfg.DatabaseURL != "todo.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.FlagFetchTimeout != time.Minute || cfg.FlagMinFetchInterval != time.Minute || cfg.FlagRefreshInterval != time.Minute {
		t.Fatalf("unexpected flag timings %+v", cfg)
	}
}

func TestLoadProductionIntervals(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FlagMinFetchInterval != time.Hour || cfg.FlagRefreshInterval != time.Hour {
		t.Fatalf("expected hourly fetches in production, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
app_env = "production"
http_addr = ":9000"
storage_backend = "memory"
flag_min_fetch_interval = "0s"
rate_limit_rps = 5.0
log_format = "json"
`)
	t.Setenv("TODO_CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("FLAG_REFRESH_INTERVAL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppEnv != EnvProduction || cfg.StorageBackend != BackendMemory || cfg.LogFormat != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Fatalf("environment should override the file, got %q", cfg.HTTPAddr)
	}
	if cfg.FlagMinFetchInterval != 0 {
		t.Fatalf("explicit zero interval must be kept, got %v", cfg.FlagMinFetchInterval)
	}
	if cfg.FlagRefreshInterval != 30*time.Second || cfg.RateLimitRPS != 5 {
		t.Fatalf("unexpected values %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad env", map[string]string{"APP_ENV": "staging"}, "APP_ENV"},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "cloud"}, "STORAGE_BACKEND"},
		{"remote without redis", map[string]string{"STORAGE_BACKEND": "remote"}, "REDIS_URL"},
		{"flag key without redis", map[string]string{"REMOTE_CONFIG_REDIS_KEY": "flags"}, "REDIS_URL"},
		{"bad duration", map[string]string{"FLAG_FETCH_TIMEOUT": "soon"}, "FLAG_FETCH_TIMEOUT"},
		{"zero timeout", map[string]string{"FLAG_FETCH_TIMEOUT": "0s"}, "FLAG_FETCH_TIMEOUT"},
		{"bad rps", map[string]string{"RATE_LIMIT_RPS": "fast"}, "RATE_LIMIT_RPS"},
		{"zero burst", map[string]string{"RATE_LIMIT_RPS": "1", "RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for a missing config file")
	}
}

func TestRemoteBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "remote")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisPrefix != "todo" {
		t.Fatalf("unexpected prefix %q", cfg.RedisPrefix)
	}
}
