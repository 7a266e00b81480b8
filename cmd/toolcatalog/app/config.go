package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/selector"
	"github.com/siteoptz/toolcatalog/pkg/store"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Duplicate detection
	NameSimilarityThreshold float64
	ModerateThreshold       float64
	StrictMode              bool
	WebsiteMatchRequired    bool

	// Version selection
	PrioritizeNewer        bool
	PrioritizeMoreComplete bool
	KeepBestRated          bool
	UpdateMargin           float64

	// Catalog
	Taxonomy string
	Store    string
	Catalog  string

	// Metrics
	MetricsTextfile string

	// Server
	Host string
	Port int

	// Logging configuration. LogLevel comes from --log-level only;
	// EnvLogLevel holds the config file or environment value.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by cobra)
//  2. TOOLCATALOG_* environment variables
//  3. .env and .env.local files
//  4. Config file (configFile, or .toolcatalog.yaml in . or $HOME)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		v.SetConfigName(constants.DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading config file", err)
			}
		}
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),
		Format:     v.GetString("format"),

		NameSimilarityThreshold: v.GetFloat64("nameSimilarityThreshold"),
		ModerateThreshold:       v.GetFloat64("moderateThreshold"),
		StrictMode:              v.GetBool("strictMode"),
		WebsiteMatchRequired:    v.GetBool("websiteMatchRequired"),

		PrioritizeNewer:        v.GetBool("prioritizeNewer"),
		PrioritizeMoreComplete: v.GetBool("prioritizeMoreComplete"),
		KeepBestRated:          v.GetBool("keepBestRated"),
		UpdateMargin:           v.GetFloat64("updateMargin"),

		Taxonomy: v.GetString("taxonomy"),
		Store:    v.GetString("store"),
		Catalog:  v.GetString("catalog"),

		MetricsTextfile: v.GetString("metrics_textfile"),

		Host: v.GetString("host"),
		Port: v.GetInt("port"),

		EnvLogLevel: firstNonEmpty(v.GetString("log_level"), os.Getenv("LOG_LEVEL")),
		LogFormat:   firstNonEmpty(v.GetString("log_format"), os.Getenv("LOG_FORMAT"), "auto"),
		LogOutput:   firstNonEmpty(v.GetString("log_output"), os.Getenv("LOG_OUTPUT"), "stderr"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nameSimilarityThreshold", constants.NameSimilarityThreshold)
	v.SetDefault("moderateThreshold", constants.ModerateSimilarityThreshold)
	v.SetDefault("strictMode", true)
	v.SetDefault("websiteMatchRequired", true)
	v.SetDefault("prioritizeNewer", true)
	v.SetDefault("prioritizeMoreComplete", true)
	v.SetDefault("keepBestRated", true)
	v.SetDefault("updateMargin", constants.UpdateMargin)
	v.SetDefault("store", string(store.KindFile))
	v.SetDefault("catalog", constants.DefaultCatalogPath)
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
}

// UpdateFromFlags updates config values from parsed command flags so they
// take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// DetectorOptions returns the batch deduplication options.
func (c *Config) DetectorOptions() detector.Options {
	o := detector.DefaultOptions()
	o.NameThreshold = c.NameSimilarityThreshold
	o.ModerateThreshold = c.ModerateThreshold
	return o
}

// MergeDetectorOptions returns the options used when merging into the
// stored catalog.
func (c *Config) MergeDetectorOptions() detector.Options {
	o := detector.MergeOptions()
	o.ModerateThreshold = min(c.ModerateThreshold, o.NameThreshold)
	o.StrictMode = c.StrictMode
	o.WebsiteMatchRequired = c.WebsiteMatchRequired
	return o
}

// ReconcilerOptions maps the configuration onto reconciler options.
func (c *Config) ReconcilerOptions() ([]reconciler.Option, error) {
	opts := []reconciler.Option{
		reconciler.WithDetectorOptions(c.DetectorOptions()),
		reconciler.WithMergeDetectorOptions(c.MergeDetectorOptions()),
		reconciler.WithSelectorOptions(
			selector.WithPrioritizeNewer(c.PrioritizeNewer),
			selector.WithPrioritizeMoreComplete(c.PrioritizeMoreComplete),
			selector.WithKeepBestRated(c.KeepBestRated),
		),
		reconciler.WithUpdateMargin(c.UpdateMargin),
	}
	if c.Taxonomy != "" {
		t, err := normalize.LoadTaxonomy(c.Taxonomy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reconciler.WithTaxonomy(t))
	}
	return opts, nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
