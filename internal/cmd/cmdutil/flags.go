// Package cmdutil provides shared flags and output helpers for curator commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/pkg/errors"
)

// SelectionFlags holds the selection settings a command accepts.
type SelectionFlags struct {
	TargetSize   int
	MinPerSource int
	Seed         uint64
}

// AddSelectionFlags adds selection flags to a command. Flags left unset
// fall back to the configured settings in Resolve.
func AddSelectionFlags(cmd *cobra.Command) *SelectionFlags {
	flags := &SelectionFlags{}

	cmd.Flags().IntVarP(&flags.TargetSize, "target", "n", 0,
		"Subset size (default from config, 100)")
	cmd.Flags().IntVar(&flags.MinPerSource, "min-per-source", 0,
		"Minimum items drawn from each source (default from config, 10)")
	cmd.Flags().Uint64Var(&flags.Seed, "seed", 0,
		"Random seed (default from config, 42)")

	return flags
}

// Resolve fills flags the user did not set from s and validates the result.
func (f *SelectionFlags) Resolve(cmd *cobra.Command, s appcontext.Settings) error {
	if !cmd.Flags().Changed("target") {
		f.TargetSize = s.TargetSize
	}
	if !cmd.Flags().Changed("min-per-source") {
		f.MinPerSource = s.MinPerSource
	}
	if !cmd.Flags().Changed("seed") {
		f.Seed = s.Seed
	}
	if f.TargetSize <= 0 {
		return &errors.ValidationError{Field: "target", Value: f.TargetSize, Message: "must be positive"}
	}
	if f.MinPerSource < 0 {
		return &errors.ValidationError{Field: "min-per-source", Value: f.MinPerSource, Message: "cannot be negative"}
	}
	return nil
}

// ReconcileFlags holds flags for commands that read search folders.
type ReconcileFlags struct {
	IDField string
	Prefix  string
}

// AddReconcileFlags adds reconciliation flags to a command.
func AddReconcileFlags(cmd *cobra.Command) *ReconcileFlags {
	flags := &ReconcileFlags{}

	cmd.Flags().StringVar(&flags.IDField, "id-field", "",
		"Record field holding the item ID (default from config, item_id)")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", "",
		"Folder prefix marking a source (default from config, search_)")

	return flags
}

// Resolve fills unset flags from s.
func (f *ReconcileFlags) Resolve(s appcontext.Settings) {
	if f.IDField == "" {
		f.IDField = s.IDField
	}
	if f.Prefix == "" {
		f.Prefix = s.SourcePrefix
	}
}

// ExportFlags holds flags naming the export files.
type ExportFlags struct {
	Name string
	YAML bool
}

// AddExportFlags adds export flags to a command.
func AddExportFlags(cmd *cobra.Command) *ExportFlags {
	flags := &ExportFlags{}

	cmd.Flags().StringVar(&flags.Name, "name", "",
		"Export file prefix (default: input directory name)")
	cmd.Flags().BoolVar(&flags.YAML, "yaml", false,
		"Also write the provenance as YAML")

	return flags
}
