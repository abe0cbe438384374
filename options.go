package curator

import (
	"github.com/agentstation/curator/internal/store"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/selector"
)

// RunOptions controls a full curation run.
type RunOptions struct {
	// Export layout
	OutputDir string
	Name      string
	WriteYAML bool

	// Reconciliation
	IDField string

	// Selection
	TargetSize   int
	MinPerSource int
	Seed         uint64

	// Input describes where the batches came from; recorded with the run
	Input string

	// Store records the run when set
	Store *store.Store
}

// RunOption is a function that configures RunOptions.
type RunOption func(*RunOptions)

// NewRunOptions creates run options with defaults applied.
func NewRunOptions(opts ...RunOption) *RunOptions {
	options := &RunOptions{
		Name:         constants.DefaultRunName,
		IDField:      constants.DefaultIDField,
		TargetSize:   constants.DefaultTargetSize,
		MinPerSource: constants.DefaultMinPerSource,
		Seed:         constants.DefaultSeed,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Validate checks the options before any work starts.
func (o *RunOptions) Validate() error {
	if o.OutputDir == "" {
		return &errors.ValidationError{Field: "output_dir", Message: "output directory is required"}
	}
	if o.IDField == "" {
		return &errors.ValidationError{Field: "id_field", Message: "ID field cannot be empty"}
	}
	if o.TargetSize <= 0 {
		return errors.NewValidationError("target_size", o.TargetSize, "must be positive")
	}
	if o.MinPerSource < 0 {
		return errors.NewValidationError("min_per_source", o.MinPerSource, "cannot be negative")
	}
	return nil
}

// Paths returns the export layout of the run.
func (o *RunOptions) Paths() Paths {
	return NewPaths(o.OutputDir, o.Name)
}

// SelectorOptions converts the selection settings.
func (o *RunOptions) SelectorOptions() []selector.Option {
	return []selector.Option{
		selector.WithTargetSize(o.TargetSize),
		selector.WithMinPerSource(o.MinPerSource),
		selector.WithSeed(o.Seed),
	}
}

// WithOutputDir sets the directory exports are written to.
func WithOutputDir(dir string) RunOption {
	return func(o *RunOptions) {
		o.OutputDir = dir
	}
}

// WithName sets the export file prefix.
func WithName(name string) RunOption {
	return func(o *RunOptions) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithYAML also writes the provenance YAML export.
func WithYAML(enabled bool) RunOption {
	return func(o *RunOptions) {
		o.WriteYAML = enabled
	}
}

// WithIDField sets the record field holding the item ID.
func WithIDField(field string) RunOption {
	return func(o *RunOptions) {
		if field != "" {
			o.IDField = field
		}
	}
}

// WithTargetSize sets the subset size.
func WithTargetSize(n int) RunOption {
	return func(o *RunOptions) {
		o.TargetSize = n
	}
}

// WithMinPerSource sets the per-source minimum.
func WithMinPerSource(n int) RunOption {
	return func(o *RunOptions) {
		o.MinPerSource = n
	}
}

// WithSeed sets the selection seed.
func WithSeed(seed uint64) RunOption {
	return func(o *RunOptions) {
		o.Seed = seed
	}
}

// WithInput records where the batches came from.
func WithInput(input string) RunOption {
	return func(o *RunOptions) {
		o.Input = input
	}
}

// WithStore records the run in s.
func WithStore(s *store.Store) RunOption {
	return func(o *RunOptions) {
		o.Store = s
	}
}

func storeParams(o *RunOptions) store.RunParams {
	return store.RunParams{
		Input:        o.Input,
		Seed:         o.Seed,
		TargetSize:   o.TargetSize,
		MinPerSource: o.MinPerSource,
	}
}
