package reconciler

import (
	"strings"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// options configures a reconciler.
type options struct {
	idField string
}

func defaultOptions() *options {
	return &options{idField: constants.DefaultIDField}
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

// WithIDField sets the record field that carries the item identifier.
func WithIDField(field string) Option {
	return func(o *options) error {
		field = strings.TrimSpace(field)
		if field == "" {
			return &errors.ValidationError{
				Field:   "id_field",
				Message: "cannot be empty",
			}
		}
		o.idField = field
		return nil
	}
}
