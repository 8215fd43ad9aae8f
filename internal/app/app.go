package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/specialistvlad/definer/internal/ctxlog"
	"github.com/specialistvlad/definer/internal/doctree"
	"github.com/specialistvlad/definer/internal/identity"
	"github.com/specialistvlad/definer/internal/registry"
	"github.com/specialistvlad/definer/internal/value"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	resolver *value.Resolver
	docs     []*doctree.Document
	objects  *identity.Registry[identity.Object]
}

// New is the constructor for the main application. It returns an App with
// its own logger and registry. Without modules the core modules are
// installed.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.Install(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "classes", len(reg.Catalog.Names()))

	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}

	culture := language.Und
	if cfg.Culture != "" {
		tag, err := language.Parse(cfg.Culture)
		if err != nil {
			return nil, fmt.Errorf("invalid culture %q: %w", cfg.Culture, err)
		}
		culture = tag
	}
	resolver := reg.Resolver(value.WithCulture(culture), value.WithIgnoreCase(cfg.IgnoreCase))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		resolver: resolver,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Documents returns the documents read by LoadDocuments.
func (a *App) Documents() []*doctree.Document {
	return a.docs
}

// Objects returns the identity registry filled by the last Construct, or
// nil before one ran.
func (a *App) Objects() *identity.Registry[identity.Object] {
	return a.objects
}
