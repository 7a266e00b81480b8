package toolcatalog

import (
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*config) error

// config holds the client configuration.
type config struct {
	store          store.Store
	reconcilerOpts []reconciler.Option
	dryRun         bool
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithStore configures where the catalog is persisted.
func WithStore(s store.Store) Option {
	return func(c *config) error {
		if s == nil {
			return errors.NewValidationError("store", nil, "store cannot be nil")
		}
		c.store = s
		return nil
	}
}

// WithReconcilerOptions passes options to the underlying reconciler.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(c *config) error {
		c.reconcilerOpts = append(c.reconcilerOpts, opts...)
		return nil
	}
}

// WithDryRun runs ingests without saving the catalog.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}
