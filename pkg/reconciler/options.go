package reconciler

import (
	"time"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/selector"
)

// options configures a reconciler.
type options struct {
	taxonomy     normalize.Taxonomy
	dedupe       detector.Options
	merge        detector.Options
	selector     []selector.Option
	updateMargin float64
	now          func() time.Time
	recorder     Recorder
	runID        string
}

func defaultOptions() *options {
	return &options{
		taxonomy:     normalize.DefaultTaxonomy(),
		dedupe:       detector.DefaultOptions(),
		merge:        detector.MergeOptions(),
		updateMargin: constants.UpdateMargin,
		now:          time.Now,
		recorder:     nopRecorder{},
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTaxonomy sets the category table used to normalize incoming records.
func WithTaxonomy(t normalize.Taxonomy) Option {
	return func(o *options) error {
		if err := t.Validate(); err != nil {
			return err
		}
		o.taxonomy = t
		return nil
	}
}

// WithDetectorOptions sets the detection rules used by Dedupe.
func WithDetectorOptions(d detector.Options) Option {
	return func(o *options) error {
		if err := d.Validate(); err != nil {
			return err
		}
		o.dedupe = d
		return nil
	}
}

// WithMergeDetectorOptions sets the detection rules used by MergeInto.
func WithMergeDetectorOptions(d detector.Options) Option {
	return func(o *options) error {
		if err := d.Validate(); err != nil {
			return err
		}
		o.merge = d
		return nil
	}
}

// WithSelectorOptions configures version selection.
func WithSelectorOptions(opts ...selector.Option) Option {
	return func(o *options) error {
		o.selector = append(o.selector, opts...)
		return nil
	}
}

// WithUpdateMargin sets how much more complete an incoming record must be
// to update an existing one (0.2 means 20%).
func WithUpdateMargin(margin float64) Option {
	return func(o *options) error {
		if margin < 0 {
			return &errors.ValidationError{
				Field:   "updateMargin",
				Value:   margin,
				Message: "must not be negative",
			}
		}
		o.updateMargin = margin
		return nil
	}
}

// WithClock sets the time source for merge stamps, recency scoring and metadata.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{
				Field:   "clock",
				Message: "cannot be nil",
			}
		}
		o.now = now
		return nil
	}
}

// WithMetrics reports batch outcomes to r.
func WithMetrics(r Recorder) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{
				Field:   "metrics",
				Message: "cannot be nil",
			}
		}
		o.recorder = r
		return nil
	}
}

// WithRunID fixes the run id stamped on ingested catalogs.
// By default every Ingest call gets a fresh UUID.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}
