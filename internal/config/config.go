// Package config loads gateway configuration from a YAML file, a local .env
// file, and environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	File     FileConfig     `yaml:"file"`
}

// StoreConfig selects the profile store backend.
type StoreConfig struct {
	// Backend is one of: memory, file, redis, postgres.
	Backend string `yaml:"backend"`
}

type HTTPConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables distributed write locking via the same Redis instance.
	Lock bool `yaml:"lock"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Store: StoreConfig{Backend: "memory"},
		HTTP:  HTTPConfig{Port: "8080"},
		Log:   LogConfig{Level: "info", Format: "text"},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "onboard:profile:"},
	}
}

// Load builds the configuration. A missing config file is not an error; a
// present but malformed one is.
func Load(path string) (Config, error) {
	// .env files are a development convenience; absence is normal.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ONBOARD_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("ONBOARD_HTTP_PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("ONBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ONBOARD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ONBOARD_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ONBOARD_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ONBOARD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("ONBOARD_REDIS_LOCK"); v != "" {
		cfg.Redis.Lock = v == "1" || v == "true"
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("ONBOARD_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("ONBOARD_FILE_PATH"); v != "" {
		cfg.File.Path = v
	}
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file, redis, or postgres)", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres backend requires a DSN (ONBOARD_POSTGRES_DSN or config file)")
	}
	return nil
}
