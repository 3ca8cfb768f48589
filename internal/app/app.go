package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/engine"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/http_client"
	"resty.dev/v3"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	http       *resty.Client
	collab     collab.Set
	engine     *engine.Engine
	source     registry.ChangeSource
	httpServer *http.Server
	addr       atomic.Value
}

// NewApp is the constructor for the main application. It builds one backend
// per collaborator role from the registered modules and wires the engine
// over them. When no modules are given the core modules are used.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	a := &App{outW: outW, logger: logger, config: cfg, registry: reg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("Application wired.")
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	hc, err := http_client.New(a.config.HTTPClient)
	if err != nil {
		return fmt.Errorf("failed to create http client: %w", err)
	}
	a.http = hc

	stores := make(map[string]registry.ObjectStore, len(a.config.Stores))
	names := make([]string, 0, len(a.config.Stores))
	for name := range a.config.Stores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s, err := registry.Build(ctx, a.registry.Stores, name, registry.Env{Settings: a.config.Stores[name], HTTP: hc})
		if err != nil {
			return fmt.Errorf("store %s: %w", name, err)
		}
		stores[name] = s
	}
	env := func(b Backend) registry.Env {
		return registry.Env{Settings: b.Settings, HTTP: hc, Stores: stores}
	}

	if a.collab.Definitions, err = registry.Build(ctx, a.registry.Definitions, a.config.Definitions.Type, env(a.config.Definitions)); err != nil {
		return fmt.Errorf("definitions: %w", err)
	}
	if a.collab.Queries, err = registry.Build(ctx, a.registry.Queries, a.config.Queries.Type, env(a.config.Queries)); err != nil {
		return fmt.Errorf("queries: %w", err)
	}
	if a.collab.References, err = registry.Build(ctx, a.registry.References, a.config.References.Type, env(a.config.References)); err != nil {
		return fmt.Errorf("references: %w", err)
	}
	if a.collab.Composer, err = registry.Build(ctx, a.registry.Composers, a.config.Composer.Type, env(a.config.Composer)); err != nil {
		return fmt.Errorf("composer: %w", err)
	}
	if a.collab.Delivery, err = registry.Build(ctx, a.registry.Deliveries, a.config.Delivery.Type, env(a.config.Delivery)); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	if a.config.Source != nil {
		if a.source, err = registry.Build(ctx, a.registry.Sources, a.config.Source.Type, env(*a.config.Source)); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}

	a.engine, err = engine.New(a.collab, engine.Options{
		Timeout: a.config.Timeout,
		Workers: a.config.Workers,
		CDNRoot: a.config.CDNRoot,
	})
	return err
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the wired engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Resolve runs one interactive resolution with the application's logger.
func (a *App) Resolve(ctx context.Context, req engine.ResolveRequest) (*model.Content, error) {
	return a.engine.Resolve(ctxlog.WithLogger(ctx, a.logger), req)
}

// Close releases every backend holding resources.
func (a *App) Close() error {
	var errList []error
	for _, c := range []any{a.collab.Definitions, a.collab.Queries, a.collab.References, a.collab.Composer, a.collab.Delivery} {
		if closer, ok := c.(io.Closer); ok {
			errList = append(errList, closer.Close())
		}
	}
	if a.http != nil {
		errList = append(errList, http_client.Close(a.http))
	}
	return errors.Join(errList...)
}
