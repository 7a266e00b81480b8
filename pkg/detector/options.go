package detector

import (
	"runtime"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
)

// Options tunes the detection rules.
type Options struct {
	// NameThreshold is the normalized-name ratio at or above which a pair is
	// a definite duplicate.
	NameThreshold float64 `json:"nameSimilarityThreshold" yaml:"nameSimilarityThreshold"`

	// ModerateThreshold is the ratio at or above which a pair is a possible duplicate.
	ModerateThreshold float64 `json:"moderateThreshold" yaml:"moderateThreshold"`

	// WordOverlapThreshold is the share of candidate words that must have a
	// near match before the word-overlap rule fires.
	WordOverlapThreshold float64 `json:"wordOverlapThreshold" yaml:"wordOverlapThreshold"`

	// WordMatchThreshold is the ratio two words must exceed to count as a near match.
	WordMatchThreshold float64 `json:"wordMatchThreshold" yaml:"wordMatchThreshold"`

	// StrictMode with WebsiteMatchRequired demotes name matches of
	// candidates without a website to possible duplicates.
	StrictMode           bool `json:"strictMode" yaml:"strictMode"`
	WebsiteMatchRequired bool `json:"websiteMatchRequired" yaml:"websiteMatchRequired"`

	// Concurrency bounds FindAll. Zero means GOMAXPROCS.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// DefaultOptions returns the options used for batch deduplication.
func DefaultOptions() Options {
	return Options{
		NameThreshold:        constants.NameSimilarityThreshold,
		ModerateThreshold:    constants.ModerateSimilarityThreshold,
		WordOverlapThreshold: constants.WordOverlapThreshold,
		WordMatchThreshold:   constants.WordMatchThreshold,
	}
}

// MergeOptions returns the stricter options used when merging into an
// existing catalog.
func MergeOptions() Options {
	o := DefaultOptions()
	o.NameThreshold = constants.MergeSimilarityThreshold
	o.StrictMode = true
	o.WebsiteMatchRequired = true
	return o
}

// Validate checks that thresholds are in range and ordered.
func (o Options) Validate() error {
	thresholds := []struct {
		field string
		value float64
	}{
		{"nameSimilarityThreshold", o.NameThreshold},
		{"moderateThreshold", o.ModerateThreshold},
		{"wordOverlapThreshold", o.WordOverlapThreshold},
		{"wordMatchThreshold", o.WordMatchThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 1 {
			return errors.NewValidationError(th.field, th.value, "must be between 0 and 1")
		}
	}
	if o.ModerateThreshold > o.NameThreshold {
		return errors.NewValidationError("moderateThreshold", o.ModerateThreshold,
			"must not exceed nameSimilarityThreshold")
	}
	if o.Concurrency < 0 {
		return errors.NewValidationError("concurrency", o.Concurrency, "must not be negative")
	}
	return nil
}

func (o Options) workers() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}
