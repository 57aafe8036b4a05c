package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config keeps runtime settings for the service.
//
// Values are layered: defaults, then the TOML file named by TODO_CONFIG_FILE,
// then environment variables (a .env file in the working directory is loaded
// first without overriding the real environment).
type Config struct {
	AppEnv         string `toml:"app_env"`
	HTTPAddr       string `toml:"http_addr"`
	StorageBackend string `toml:"storage_backend"`
	DatabaseURL    string `toml:"database_url"`
	RedisURL       string `toml:"redis_url"`
	RedisPrefix    string `toml:"redis_prefix"`

	RemoteConfigURL      string        `toml:"remote_config_url"`
	RemoteConfigRedisKey string        `toml:"remote_config_redis_key"`
	FlagFetchTimeout     time.Duration `toml:"flag_fetch_timeout"`
	// FlagMinFetchInterval defaults to 1h in production and 1m otherwise.
	FlagMinFetchInterval time.Duration `toml:"flag_min_fetch_interval"`
	// FlagRefreshInterval defaults to FlagMinFetchInterval; zero disables the
	// periodic refresh.
	FlagRefreshInterval time.Duration `toml:"flag_refresh_interval"`

	SystemColorScheme string  `toml:"system_color_scheme"`
	RateLimitRPS      float64 `toml:"rate_limit_rps"`
	RateLimitBurst    int     `toml:"rate_limit_burst"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendRemote = "remote"
)

func defaults() Config {
	return Config{
		AppEnv:           EnvDevelopment,
		HTTPAddr:         ":8080",
		StorageBackend:   BackendLocal,
		DatabaseURL:      "todo.db",
		RedisPrefix:      "todo",
		FlagFetchTimeout: 60 * time.Second,
		RateLimitBurst:   20,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads configuration with sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	set := map[string]bool{}

	if path := strings.TrimSpace(os.Getenv("TODO_CONFIG_FILE")); path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			log.WithField("keys", undecoded).Warn("unknown keys in config file")
		}
		for _, k := range []string{"flag_min_fetch_interval", "flag_refresh_interval"} {
			set[k] = md.IsDefined(k)
		}
	}

	if err := applyEnv(&cfg, set); err != nil {
		return cfg, err
	}

	if !set["flag_min_fetch_interval"] {
		cfg.FlagMinFetchInterval = minFetchInterval(cfg.AppEnv)
	}
	if !set["flag_refresh_interval"] {
		cfg.FlagRefreshInterval = cfg.FlagMinFetchInterval
	}

	return cfg, cfg.Validate()
}

func minFetchInterval(env string) time.Duration {
	if env == EnvProduction {
		return time.Hour
	}
	return time.Minute
}

func applyEnv(cfg *Config, set map[string]bool) error {
	strs := map[string]*string{
		"APP_ENV":                 &cfg.AppEnv,
		"HTTP_ADDR":               &cfg.HTTPAddr,
		"STORAGE_BACKEND":         &cfg.StorageBackend,
		"DATABASE_URL":            &cfg.DatabaseURL,
		"REDIS_URL":               &cfg.RedisURL,
		"REDIS_PREFIX":            &cfg.RedisPrefix,
		"REMOTE_CONFIG_URL":       &cfg.RemoteConfigURL,
		"REMOTE_CONFIG_REDIS_KEY": &cfg.RemoteConfigRedisKey,
		"SYSTEM_COLOR_SCHEME":     &cfg.SystemColorScheme,
		"LOG_LEVEL":               &cfg.LogLevel,
		"LOG_FORMAT":              &cfg.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"FLAG_FETCH_TIMEOUT":      &cfg.FlagFetchTimeout,
		"FLAG_MIN_FETCH_INTERVAL": &cfg.FlagMinFetchInterval,
		"FLAG_REFRESH_INTERVAL":   &cfg.FlagRefreshInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		set[strings.ToLower(key)] = true
	}

	if v, ok := lookup("RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = rps
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = burst
	}
	return nil
}

// lookup treats a variable set to whitespace as unset.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (c Config) Validate() error {
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.AppEnv)
	}

	switch c.StorageBackend {
	case BackendLocal, BackendMemory:
	case BackendRemote:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the %q storage backend", BackendRemote)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.RemoteConfigRedisKey != "" && c.RedisURL == "" {
		return fmt.Errorf("REMOTE_CONFIG_REDIS_KEY requires REDIS_URL")
	}
	if c.FlagFetchTimeout <= 0 {
		return fmt.Errorf("FLAG_FETCH_TIMEOUT must be positive")
	}
	if c.FlagMinFetchInterval < 0 || c.FlagRefreshInterval < 0 {
		return fmt.Errorf("flag intervals must not be negative")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ConfigureLogging applies the level and format to the standard logrus
// logger.
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
