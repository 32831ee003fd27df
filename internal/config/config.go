// Package config loads gridscout settings from a YAML file, GRIDSCOUT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GRIDSCOUT_GRID_API_KEY.
const EnvPrefix = "GRIDSCOUT"

// Config is the full application configuration.
type Config struct {
	DB        string          `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Grid      GridConfig      `mapstructure:"grid"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Reports   ReportsConfig   `mapstructure:"reports"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GridConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Concurrency int    `mapstructure:"concurrency"`
	Dir         string `mapstructure:"dir"` // where fetched event archives are stored
}

// CacheConfig selects the cache backend: "memory" or "redis".
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ReportsConfig selects the report store: "sqlite" (uses DB) or "postgres" (uses DSN).
type ReportsConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"db":         "db",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Home returns the gridscout state directory (~/.gridscout).
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".gridscout")
}

// DefaultPath is the config file read when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Home(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", filepath.Join(Home(), "gridscout.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("grid.api_key", "")
	v.SetDefault("grid.base_url", "https://api.grid.gg")
	v.SetDefault("grid.concurrency", 5)
	v.SetDefault("grid.dir", filepath.Join(Home(), "series"))
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("reports.backend", "sqlite")
	v.SetDefault("reports.dsn", "")
}

// Load reads configuration from path, the environment and flags, in
// increasing precedence. A missing file is not an error. flags may be nil;
// only flags the user set override the other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and non-positive limits.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want memory or redis)", c.Cache.Backend)
	}
	switch c.Reports.Backend {
	case "sqlite":
	case "postgres":
		if c.Reports.DSN == "" {
			return errors.New("reports.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("reports.backend: unknown backend %q (want sqlite or postgres)", c.Reports.Backend)
	}
	if c.Grid.Concurrency <= 0 {
		return fmt.Errorf("grid.concurrency must be positive, got %d", c.Grid.Concurrency)
	}
	return nil
}
