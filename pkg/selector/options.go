package selector

import (
	"time"

	"github.com/siteoptz/toolcatalog/pkg/errors"
)

type options struct {
	newer        bool
	moreComplete bool
	bestRated    bool
	now          func() time.Time
}

func defaultOptions() *options {
	return &options{
		newer:        true,
		moreComplete: true,
		bestRated:    true,
		now:          time.Now,
	}
}

// Option is a function that configures a Selector.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns selector options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithPrioritizeNewer toggles the recency bonus.
func WithPrioritizeNewer(enabled bool) Option {
	return func(o *options) error {
		o.newer = enabled
		return nil
	}
}

// WithPrioritizeMoreComplete toggles the completeness points.
func WithPrioritizeMoreComplete(enabled bool) Option {
	return func(o *options) error {
		o.moreComplete = enabled
		return nil
	}
}

// WithKeepBestRated toggles adding the rating to the score.
func WithKeepBestRated(enabled bool) Option {
	return func(o *options) error {
		o.bestRated = enabled
		return nil
	}
}

// WithClock sets the time source used for recency.
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

// WithNow pins the clock to a fixed instant.
func WithNow(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}
