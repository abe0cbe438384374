package selector

import (
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// options configures a selection run.
type options struct {
	targetSize   int
	minPerSource int
	seed         uint64
}

func defaultOptions() *options {
	return &options{
		targetSize:   constants.DefaultTargetSize,
		minPerSource: constants.DefaultMinPerSource,
		seed:         constants.DefaultSeed,
	}
}

// Option is a function that configures a selection run.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithTargetSize sets the maximum number of items to select.
func WithTargetSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "target_size",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.targetSize = n
		return nil
	}
}

// WithMinPerSource sets the per-source representation floor.
func WithMinPerSource(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return &errors.ValidationError{
				Field:   "min_per_source",
				Value:   n,
				Message: "cannot be negative",
			}
		}
		o.minPerSource = n
		return nil
	}
}

// WithSeed sets the random seed. Equal seeds over equal input give equal
// selections.
func WithSeed(seed uint64) Option {
	return func(o *options) error {
		o.seed = seed
		return nil
	}
}
