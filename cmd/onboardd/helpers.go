package main

import (
	"context"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/fractionalquest/onboard"
	"github.com/fractionalquest/onboard/internal/config"
	"github.com/fractionalquest/onboard/internal/logging"
	"github.com/fractionalquest/onboard/pkg/adapters/file"
	"github.com/fractionalquest/onboard/pkg/adapters/memory"
	"github.com/fractionalquest/onboard/pkg/adapters/postgres"
	"github.com/fractionalquest/onboard/pkg/adapters/redis"
	"github.com/fractionalquest/onboard/pkg/ports"
)

// loadConfig reads the config file named by the persistent --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newLogger builds the logger the config asks for.
func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Log.Format == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}

// buildStore wires the configured store backend and, for redis, an optional
// distributed locker. The returned close func releases any held connections.
func buildStore(ctx context.Context, cfg config.Config) (ports.ProfileStore, ports.DistributedLocker, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "memory":
		return memory.NewStore(), nil, noop, nil

	case "file":
		return file.New(cfg.File.Path), nil, noop, nil

	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts := []redis.Option{}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.NewFromClient(client, opts...)

		var locker ports.DistributedLocker
		if cfg.Redis.Lock {
			locker = redis.NewLocker(client, cfg.Redis.Prefix)
		}
		return store, locker, func() { _ = store.Close() }, nil

	case "postgres":
		store, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, noop, fmt.Errorf("failed to ensure schema: %w", err)
		}
		return store, nil, func() { _ = store.Close() }, nil
	}

	return nil, nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// buildEngine assembles the full machine from config.
func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*onboard.Engine, func(), error) {
	store, locker, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []onboard.Option{
		onboard.WithStore(store),
		onboard.WithLogger(logger),
	}
	if locker != nil {
		opts = append(opts, onboard.WithLocker(locker))
	}
	return onboard.New(opts...), closeStore, nil
}
