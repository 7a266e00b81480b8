// Package server exposes the reconciler over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/siteoptz/toolcatalog/internal/server/response"
	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/store"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	rec       reconciler.Reconciler
	store     store.Store
	gatherer  prometheus.Gatherer
	logger    *zerolog.Logger
	config    Config
	startTime time.Time

	// catalogMu serializes load-ingest-save cycles against the store.
	catalogMu sync.Mutex

	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithStore serves and updates the catalog held by st.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithGatherer exposes gatherer on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the server logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a new server instance with the given configuration.
func New(rec reconciler.Reconciler, cfg Config, opts ...Option) (*Server, error) {
	if rec == nil {
		return nil, errors.NewValidationError("reconciler", nil, "reconciler is required")
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}

	s := &Server{
		rec:       rec,
		logger:    logging.Default(),
		config:    cfg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	s.logger.Debug().
		Str("prefix", cfg.PathPrefix).
		Bool("store", s.store != nil).
		Msg("Creating server instance")
	s.engine = s.setupRouter()
	return s, nil
}

// Handler returns the configured http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.WrapResource("listen", "server", httpServer.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.WrapResource("shutdown", "server", httpServer.Addr, err)
	}
	return nil
}

func (s *Server) setupRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(recovery(s.logger), requestLogger(s.logger), bodyLimit(s.config.MaxBodyBytes))

	engine.GET("/health", s.handleHealth)
	if s.config.MetricsEnabled {
		engine.GET("/metrics", s.handleMetrics())
	}

	api := engine.Group(s.config.PathPrefix)
	api.GET("/health", s.handleHealth)
	api.GET("/categories", s.handleCategories)
	api.POST("/categorize", s.handleCategorize)
	api.POST("/duplicates", s.handleDuplicates)
	api.POST("/dedupe", s.handleDedupe)
	api.POST("/merge", s.handleMerge)
	api.POST("/ingest", s.handleIngest)
	api.GET("/catalog", s.handleCatalog)
	api.GET("/catalog/:id", s.handleTool)

	engine.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found", c.Request.URL.Path)
	})
	return engine
}
