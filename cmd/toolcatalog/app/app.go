// Package app provides the application context and dependency management
// for the toolcatalog CLI.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/siteoptz/toolcatalog"
	"github.com/siteoptz/toolcatalog/internal/metrics"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/store"
)

// App represents the toolcatalog application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Client and store (lazy-initialized, singleton)
	mu     sync.RWMutex
	client toolcatalog.Client
	store  store.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		out:      os.Stdout,
		registry: prometheus.NewRegistry(),
	}
	app.metrics = metrics.New(app.registry)

	// Options may supply the config, so load it only when none was given.
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	if app.config == nil {
		config, err := LoadConfig("")
		if err != nil {
			return nil, errors.WrapResource("load", "config", "", err)
		}
		app.config = config
	}
	if app.logger == nil {
		logger := NewLogger(app.config)
		app.logger = &logger
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Registry returns the metrics registry.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Client returns the catalog client, opening the configured store on first use.
func (a *App) Client() (toolcatalog.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	c, st, err := a.newClient(false)
	if err != nil {
		return nil, err
	}
	a.client, a.store = c, st
	return c, nil
}

// Store returns the store behind the shared client.
func (a *App) Store() (store.Store, error) {
	if _, err := a.Client(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store, nil
}

// DryRunClient returns a new client over the configured store that never
// saves. The caller closes it.
func (a *App) DryRunClient() (toolcatalog.Client, error) {
	c, _, err := a.newClient(true)
	return c, err
}

func (a *App) newClient(dryRun bool) (toolcatalog.Client, store.Store, error) {
	recOpts, err := a.ReconcilerOptions()
	if err != nil {
		return nil, nil, err
	}

	kind, err := store.ParseKind(a.config.Store)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(kind, a.config.Catalog)
	if err != nil {
		return nil, nil, errors.WrapResource("open", "store", a.config.Catalog, err)
	}

	c, err := toolcatalog.New(
		toolcatalog.WithStore(st),
		toolcatalog.WithReconcilerOptions(recOpts...),
		toolcatalog.WithDryRun(dryRun),
	)
	if err != nil {
		_ = st.Close()
		return nil, nil, errors.WrapResource("create", "client", "", err)
	}
	return c, st, nil
}

// ReconcilerOptions returns the configured reconciler options, with the
// application metrics attached.
func (a *App) ReconcilerOptions() ([]reconciler.Option, error) {
	opts, err := a.config.ReconcilerOptions()
	if err != nil {
		return nil, err
	}
	return append(opts, reconciler.WithMetrics(a.metrics)), nil
}

// Shutdown closes the store and flushes the metrics textfile if one is configured.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client, a.store = nil, nil
	a.mu.Unlock()

	var errs []error
	if c != nil {
		if err := c.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close catalog store during shutdown")
			errs = append(errs, err)
		}
	}
	if path := a.config.MetricsTextfile; path != "" {
		if err := metrics.WriteTextfile(path, a.registry); err != nil {
			errs = append(errs, err)
		} else {
			a.logger.Debug().Str("path", path).Msg("Wrote metrics textfile")
		}
	}
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput sets where command results are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
