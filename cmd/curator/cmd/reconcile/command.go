// Package reconcile implements the reconcile command, which merges saved
// search folders into one catalog and a provenance export.
package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator"
	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/sources/files"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/sources"
)

// Flags holds the reconcile command flags.
type Flags struct {
	*cmdutil.ReconcileFlags
	*cmdutil.ExportFlags
	OutputDir string
}

// NewCommand creates the reconcile command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "reconcile <input-dir>",
		GroupID: "core",
		Short:   "Merge search folders into a deduplicated catalog",
		Long: `Reconcile reads every search_* folder under <input-dir>, in name order,
and merges the saved results into one catalog. The first folder to report
an item supplies its payload; every folder that reported it is recorded
in the provenance.

Writes <name>_unique_items.json and <name>_provenance.csv, plus
<name>_provenance.yaml with --yaml.`,
		Example: `  curator reconcile data/prompt1 --id-field art_id
  curator reconcile data/prompt1 --output-dir out --name prompt1 --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, flags, args[0])
		},
	}

	flags.ReconcileFlags = cmdutil.AddReconcileFlags(cmd)
	flags.ExportFlags = cmdutil.AddExportFlags(cmd)
	cmd.Flags().StringVar(&flags.OutputDir, "output-dir", "",
		"Directory for the exports (default: input directory)")

	return cmd
}

// summary is the structured form of the command output.
type summary struct {
	Catalog      string      `json:"catalog" yaml:"catalog"`
	Provenance   string      `json:"provenance" yaml:"provenance"`
	Sources      int         `json:"sources" yaml:"sources"`
	Records      int         `json:"records" yaml:"records"`
	UniqueItems  int         `json:"unique_items" yaml:"unique_items"`
	Duplicates   int         `json:"duplicates" yaml:"duplicates"`
	Skipped      int         `json:"skipped" yaml:"skipped"`
	Distribution map[int]int `json:"distribution" yaml:"distribution"`
	Warnings     []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func execute(cmd *cobra.Command, app appcontext.Interface, flags *Flags, inputDir string) error {
	ctx := cmdutil.Context(cmd, app)
	flags.Resolve(app.Settings())

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	outputDir := flags.OutputDir
	if outputDir == "" {
		outputDir = inputDir
	}
	lock, err := workspace.Acquire(outputDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	srcs := sources.NewSources(files.New(inputDir, files.WithPrefix(flags.Prefix)))
	res, err := curator.Reconcile(ctx, srcs, flags.IDField)
	if err != nil {
		return err
	}

	paths := curator.NewPaths(lock.Dir(), ExportName(flags.Name, inputDir))
	if err := curator.SaveReconciled(paths, res.Result, flags.YAML); err != nil {
		return err
	}

	warnings := append(append([]string{}, res.SourceWarnings...), res.Warnings...)
	if printer.Structured() {
		stats := res.Metadata.Stats
		if err := printer.Print(summary{
			Catalog:      paths.Catalog(),
			Provenance:   paths.ProvenanceCSV(),
			Sources:      stats.SourcesProcessed,
			Records:      stats.RecordsProcessed,
			UniqueItems:  stats.UniqueItems,
			Duplicates:   stats.DuplicatesAbsorbed,
			Skipped:      stats.RecordsSkipped,
			Distribution: res.Provenance.Distribution(),
			Warnings:     warnings,
		}); err != nil {
			return err
		}
	} else if err := printer.Text(res.Summary()); err != nil {
		return err
	}

	if len(warnings) > 0 {
		_ = notes.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d input problems", len(warnings))).WithDetails(warnings...))
	}
	return notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Saved %d unique items", res.Catalog.Len())).
		WithDetails(paths.Catalog(), paths.ProvenanceCSV()))
}

// ExportName returns name, or the base name of input without its
// extension when name is empty.
func ExportName(name, input string) string {
	if name != "" {
		return name
	}
	base := filepath.Base(filepath.Clean(input))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
