// Package constants provides shared constants used throughout the toolcatalog
// codebase. This includes detection thresholds, scoring weights, file
// permissions and timeouts that should be consistent across the application.
package constants

import "time"

// Detection thresholds. Similarity values are in [0,1].
const (
	// NameSimilarityThreshold is the normalized-name ratio at or above which
	// two records are definite duplicates
	NameSimilarityThreshold = 0.85

	// ModerateSimilarityThreshold is the ratio at or above which a pair is
	// flagged for review
	ModerateSimilarityThreshold = 0.6

	// MergeSimilarityThreshold is the name threshold used when merging new
	// records into an existing catalog
	MergeSimilarityThreshold = 0.8

	// WordOverlapThreshold is the fraction of candidate words that must have
	// a near match for the word-overlap rule to fire
	WordOverlapThreshold = 0.5

	// WordMatchThreshold is the per-word ratio that counts as a near match
	WordMatchThreshold = 0.8

	// MinWordLength is the length a word must exceed to be significant
	MinWordLength = 2

	// MinNameLength is the shortest name the word-overlap rule looks at
	MinNameLength = 3

	// StrictNamePenalty scales a name match demoted by strict mode
	StrictNamePenalty = 0.8
)

// Rule confidences reported with each match.
const (
	IdentityConfidence    = 1.0
	DomainConfidence      = 0.95
	WordOverlapConfidence = 0.7
)

// Scoring constants for version selection and merge decisions
const (
	// UpdateMargin is how much more complete an incoming record must be
	// before it replaces a catalog entry (0.2 means 20%)
	UpdateMargin = 0.2

	// CompleteDescriptionLength is the length a description must exceed to
	// count as complete
	CompleteDescriptionLength = 50

	// ReviewsPerPoint is the review count worth one selection point
	ReviewsPerPoint = 1000

	// MaxReviewPoints caps the review contribution to a selection score
	MaxReviewPoints = 2

	// FreshWindow is the age under which a record earns the full recency bonus
	FreshWindow = 7 * 24 * time.Hour

	// RecentWindow is the age under which a record earns the partial bonus
	RecentWindow = 30 * 24 * time.Hour

	// MaxRating is the top of the rating scale
	MaxRating = 5.0
)

// Catalog values
const (
	// OtherCategory is the fallback for categories outside the taxonomy
	OtherCategory = "other"

	// ContactPricing is the price shown for plans without a public number
	ContactPricing = "Contact for pricing"

	// ContactPlan is the plan name of the pricing placeholder
	ContactPlan = "Contact Sales"

	// FreePlanFeatures and ProPlanFeatures are how many tool features are
	// copied onto the generated plans
	FreePlanFeatures = 3
	ProPlanFeatures  = 5

	// SummaryGroups is how many duplicate groups the CLI prints
	SummaryGroups = 10
)

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// StoreOpenTimeout is how long to wait for the bbolt file lock
	StoreOpenTimeout = 1 * time.Second

	// ServerReadTimeout and ServerWriteTimeout bound HTTP API requests
	ServerReadTimeout  = 30 * time.Second
	ServerWriteTimeout = 60 * time.Second

	// ShutdownTimeout is the grace period for the HTTP server
	ShutdownTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for database files (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants
const (
	// MaxConcurrentLoads is the maximum number of source files read at once
	MaxConcurrentLoads = 8

	// MaxRequestBytes limits the body of an HTTP API request (32 MB)
	MaxRequestBytes = 32 << 20

	// MaxNameLength is the maximum allowed length for tool names
	MaxNameLength = 256
)

// Defaults for paths and the HTTP listener
const (
	DefaultCatalogPath = "data/tools.json"
	DefaultListenAddr  = ":8080"
	DefaultConfigName  = ".toolcatalog"
	EnvPrefix          = "TOOLCATALOG"
)
