package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel        slog.Level    `yaml:"-"`
	LogLevelName    string        `yaml:"log_level"`
	HTTPAddr        string        `yaml:"http_addr" validate:"required_if=Serve true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	PlanProFile       string        `yaml:"planpro_file" validate:"required"`
	PlanProVersion    string        `yaml:"planpro_version" validate:"oneof=auto 1.9 1.10"`
	CoordinateSystem  string        `yaml:"coordinate_system"`
	SkipDanglingEdges bool          `yaml:"skip_dangling_edges"`
	GeoDensify        bool          `yaml:"geo_densify"`
	GeoDensifySpacing float64       `yaml:"geo_densify_spacing" validate:"required_if=GeoDensify true,gte=0"`
	LoadTimeout       time.Duration `yaml:"load_timeout" validate:"gt=0"`

	Serve          bool          `yaml:"serve"`
	ReloadInterval time.Duration `yaml:"reload_interval" validate:"gte=0"`
	GridCellSize   float64       `yaml:"grid_cell_size" validate:"gt=0"`

	RedisEnabled  bool          `yaml:"redis_enabled"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=RedisEnabled true"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	RateLimitPerWindow int           `yaml:"rate_limit_per_window" validate:"gte=0"`
	RateLimitWindow    time.Duration `yaml:"rate_limit_window" validate:"gt=0"`
	RateLimitWhitelist []string      `yaml:"rate_limit_whitelist" validate:"dive,ip|cidr"`
	CORSOrigins        []string      `yaml:"cors_origins"`
}

func defaults() *Config {
	return &Config{
		LogLevelName:    "info",
		HTTPAddr:        ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,

		PlanProVersion:    "auto",
		GeoDensifySpacing: 5,
		LoadTimeout:       2 * time.Minute,

		ReloadInterval: 5 * time.Minute,
		GridCellSize:   1000,

		RedisAddr: "localhost:6379",
		CacheTTL:  7 * 24 * time.Hour,

		RateLimitPerWindow: 120,
		RateLimitWindow:    time.Minute,
		CORSOrigins:        []string{"*"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by PLANPRO_CONFIG and the environment, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("PLANPRO_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LogLevel = getLogLevelEnv("LOG_LEVEL", parseLevel(cfg.LogLevelName, slog.LevelInfo))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.ReadTimeout = getDurationEnv("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getDurationEnv("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.PlanProFile = getEnv("PLANPRO_FILE", cfg.PlanProFile)
	cfg.PlanProVersion = getEnv("PLANPRO_VERSION", cfg.PlanProVersion)
	cfg.CoordinateSystem = getEnv("COORDINATE_SYSTEM", cfg.CoordinateSystem)
	cfg.SkipDanglingEdges = getBoolEnv("SKIP_DANGLING_EDGES", cfg.SkipDanglingEdges)
	cfg.GeoDensify = getBoolEnv("GEO_DENSIFY", cfg.GeoDensify)
	cfg.GeoDensifySpacing = getFloatEnv("GEO_DENSIFY_SPACING", cfg.GeoDensifySpacing)
	cfg.LoadTimeout = getDurationEnv("LOAD_TIMEOUT", cfg.LoadTimeout)

	cfg.Serve = getBoolEnv("SERVE", cfg.Serve)
	cfg.ReloadInterval = getDurationEnv("RELOAD_INTERVAL", cfg.ReloadInterval)
	cfg.GridCellSize = getFloatEnv("GRID_CELL_SIZE", cfg.GridCellSize)

	cfg.RedisEnabled = getBoolEnv("REDIS_ENABLED", cfg.RedisEnabled)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getIntEnv("REDIS_DB", cfg.RedisDB)
	cfg.CacheTTL = getDurationEnv("CACHE_TTL", cfg.CacheTTL)

	cfg.RateLimitPerWindow = getIntEnv("RATE_LIMIT_PER_WINDOW", cfg.RateLimitPerWindow)
	cfg.RateLimitWindow = getDurationEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	if v := getCSVEnv("RATE_LIMIT_WHITELIST"); v != nil {
		cfg.RateLimitWhitelist = v
	}
	if v := getCSVEnv("CORS_ORIGINS"); v != nil {
		cfg.CORSOrigins = v
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	return parseLevel(os.Getenv(key), defaultVal)
}

func parseLevel(v string, defaultVal slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
