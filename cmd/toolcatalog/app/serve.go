package app

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/siteoptz/toolcatalog/internal/server"
)

// NewServeCommand creates the serve command.
func (a *App) NewServeCommand() *cobra.Command {
	var (
		host       string
		port       int
		prefix     string
		noMetrics  bool
		ginRelease bool
	)
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the catalog over HTTP",
		Long: `Serve exposes duplicate detection, deduplication, merging and the stored
catalog as a JSON API. Responses use a {data, error} envelope. Prometheus
metrics are served at /metrics unless --no-metrics is set.`,
		Example: `  toolcatalog serve --port 9090
  TOOLCATALOG_STORE=sqlite TOOLCATALOG_CATALOG=tools.db toolcatalog serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ginRelease {
				gin.SetMode(gin.ReleaseMode)
			}

			client, err := a.Client()
			if err != nil {
				return err
			}
			st, err := a.Store()
			if err != nil {
				return err
			}

			cfg := server.DefaultConfig()
			cfg.Host = firstNonEmpty(host, a.config.Host, cfg.Host)
			cfg.Port = a.config.Port
			if port != 0 {
				cfg.Port = port
			}
			if prefix != "" {
				cfg.PathPrefix = prefix
			}
			cfg.MetricsEnabled = !noMetrics

			srv, err := server.New(client.Reconciler(), cfg,
				server.WithStore(st),
				server.WithGatherer(a.registry),
				server.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config, localhost)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config, 8080)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "API path prefix (default /api/v1)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	cmd.Flags().BoolVar(&ginRelease, "release", true, "run gin in release mode")
	return cmd
}
