package onboard

import (
	"log/slog"

	"github.com/fractionalquest/onboard/pkg/adapters/memory"
	"github.com/fractionalquest/onboard/pkg/onboarding"
	"github.com/fractionalquest/onboard/pkg/ports"
	"github.com/fractionalquest/onboard/pkg/session"
)

// Version is the library version, stamped into /info and the MCP server name.
var Version = "0.3.0"

// Engine is the high-level entry point for the library.
// It wraps the onboarding state machine with sensible defaults.
type Engine = onboarding.Machine

// Option defines a functional option for configuring the Engine.
type Option func(*config)

type config struct {
	store  ports.ProfileStore
	locker ports.DistributedLocker
	logger *slog.Logger
}

// WithStore injects a custom profile store. Defaults to the in-memory store.
func WithStore(store ports.ProfileStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLocker enables distributed write serialization across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New initializes an onboarding Engine.
// Without options it runs on an in-memory store, suitable for tests and
// single-process demos; production deployments inject a durable store.
func New(opts ...Option) *Engine {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}

	machineOpts := []onboarding.Option{}
	if cfg.logger != nil {
		machineOpts = append(machineOpts, onboarding.WithLogger(cfg.logger))
	}

	lockOpts := []session.Option{}
	if cfg.locker != nil {
		lockOpts = append(lockOpts, session.WithLocker(cfg.locker))
	}
	if cfg.logger != nil {
		lockOpts = append(lockOpts, session.WithLogger(cfg.logger))
	}
	machineOpts = append(machineOpts, onboarding.WithLockManager(session.NewManager(lockOpts...)))

	return onboarding.NewMachine(cfg.store, machineOpts...)
}
