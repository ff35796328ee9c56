package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/hungry-puppies/internal/logging"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
	"github.com/eugenenazirov/hungry-puppies/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultRedisAddr      = "localhost:6379"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > config file > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	LogLevel             string
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxTreats            int
	SolveTimeout         time.Duration
	Cache                CacheConfig
}

// CacheConfig selects and tunes the solution cache.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	MaxEntries    int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// fileConfig represents the YAML or TOML configuration file structure.
// Pointers distinguish "absent" from zero values.
type fileConfig struct {
	Port                 string        `yaml:"port" toml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period" toml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout" toml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout" toml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging" toml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level" toml:"log_level"`
	MaxTreats            *int          `yaml:"max_treats" toml:"max_treats"`
	SolveTimeout         string        `yaml:"solve_timeout" toml:"solve_timeout"`
	RateLimit            fileRateLimit `yaml:"rate_limit" toml:"rate_limit"`
	Cache                fileCache     `yaml:"cache" toml:"cache"`
}

// fileRateLimit represents the rate limit section.
type fileRateLimit struct {
	RPS   *float64 `yaml:"rps" toml:"rps"`
	Burst *int     `yaml:"burst" toml:"burst"`
}

// fileCache represents the cache section.
type fileCache struct {
	Backend    string    `yaml:"backend" toml:"backend"`
	TTL        string    `yaml:"ttl" toml:"ttl"`
	MaxEntries int       `yaml:"max_entries" toml:"max_entries"`
	Redis      fileRedis `yaml:"redis" toml:"redis"`
}

type fileRedis struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	MaxTreats      *int
	CacheBackend   *string
	RedisAddr      *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > config file > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Load from YAML or TOML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		fileCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return Config{}, fmt.Errorf("apply config file: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         60 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		LogLevel:             "info",
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxTreats:            solver.DefaultMaxTreats,
		SolveTimeout:         30 * time.Second,
		Cache: CacheConfig{
			Backend:    storage.BackendMemory,
			TTL:        storage.DefaultTTL,
			MaxEntries: storage.DefaultMaxEntries,
			RedisAddr:  defaultRedisAddr,
		},
	}
}

// loadFromFile loads configuration from a YAML file, or a TOML file when the
// extension is .toml.
func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
		return &fileCfg, nil
	}

	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &fileCfg, nil
}

// applyFileConfig applies file configuration to the Config struct.
func applyFileConfig(cfg *Config, fileCfg *fileConfig) error {
	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", fileCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", fileCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", fileCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", fileCfg.IdleTimeout, &cfg.IdleTimeout},
		{"solve_timeout", fileCfg.SolveTimeout, &cfg.SolveTimeout},
		{"cache.ttl", fileCfg.Cache.TTL, &cfg.Cache.TTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if fileCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *fileCfg.EnableRequestLogging
	}

	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}

	if fileCfg.MaxTreats != nil {
		cfg.MaxTreats = *fileCfg.MaxTreats
	}

	if fileCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *fileCfg.RateLimit.RPS
	}

	if fileCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *fileCfg.RateLimit.Burst
	}

	if fileCfg.Cache.Backend != "" {
		cfg.Cache.Backend = fileCfg.Cache.Backend
	}

	if fileCfg.Cache.MaxEntries > 0 {
		cfg.Cache.MaxEntries = fileCfg.Cache.MaxEntries
	}

	if fileCfg.Cache.Redis.Addr != "" {
		cfg.Cache.RedisAddr = fileCfg.Cache.Redis.Addr
	}

	if fileCfg.Cache.Redis.Password != "" {
		cfg.Cache.RedisPassword = fileCfg.Cache.Redis.Password
	}

	if fileCfg.Cache.Redis.DB != 0 {
		cfg.Cache.RedisDB = fileCfg.Cache.Redis.DB
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if maxTreats := env("MAX_TREATS"); maxTreats != "" {
		value, err := strconv.Atoi(maxTreats)
		if err != nil {
			return fmt.Errorf("MAX_TREATS: invalid integer %q", maxTreats)
		}
		cfg.MaxTreats = value
	}

	if timeout := env("SOLVE_TIMEOUT"); timeout != "" {
		value, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("SOLVE_TIMEOUT: %w", err)
		}
		cfg.SolveTimeout = value
	}

	if backend := env("CACHE_BACKEND"); backend != "" {
		cfg.Cache.Backend = backend
	}

	if ttl := env("CACHE_TTL"); ttl != "" {
		value, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = value
	}

	if addr := env("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}

	if password := env("REDIS_PASSWORD"); password != "" {
		cfg.Cache.RedisPassword = password
	}

	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.MaxTreats != nil && *overrides.MaxTreats >= 0 {
		cfg.MaxTreats = *overrides.MaxTreats
	}

	if overrides.CacheBackend != nil && *overrides.CacheBackend != "" {
		cfg.Cache.Backend = *overrides.CacheBackend
	}

	if overrides.RedisAddr != nil && *overrides.RedisAddr != "" {
		cfg.Cache.RedisAddr = *overrides.RedisAddr
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxTreats < 0 {
		return fmt.Errorf("max treats must be >= 0")
	}
	if cfg.SolveTimeout <= 0 {
		return fmt.Errorf("solve timeout must be positive")
	}
	if !storage.ValidBackend(cfg.Cache.Backend) {
		return fmt.Errorf("%w, got %q", storage.ErrInvalidBackend, cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == storage.BackendRedis && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required for the redis cache backend")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}
