// Package run implements the run command: reconcile, select and filter in
// one pass, optionally recorded in the run store.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator"
	"github.com/agentstation/curator/cmd/curator/cmd/filter"
	"github.com/agentstation/curator/cmd/curator/cmd/reconcile"
	"github.com/agentstation/curator/cmd/curator/cmd/selection"
	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/internal/sources/files"
	"github.com/agentstation/curator/internal/sources/vectorstock"
	"github.com/agentstation/curator/internal/store"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/sources"
)

// Flags holds the run command flags.
type Flags struct {
	*cmdutil.ReconcileFlags
	*cmdutil.ExportFlags
	*cmdutil.SelectionFlags
	*cmdutil.SearchFlags
	DB   string
	Live bool
}

// NewCommand creates the run command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "run <input-dir> <output-dir>",
		GroupID: "core",
		Short:   "Reconcile, select and filter in one pass",
		Long: `Run reconciles the search folders under <input-dir>, draws a subset and
filters the catalog down to it, writing all exports to <output-dir>:

  <name>_unique_items.json    deduplicated catalog
  <name>_provenance.csv       sources per item
  <name>_selected_items.csv   selection with reasons
  <name>_filtered_items.json  selected payloads

With --live the first argument is a searches file instead; the searches
run against the API and their responses are reconciled directly.

With --db (or db_path in the config) the run, its provenance and its
selection are recorded in a SQLite database.`,
		Example: `  curator run data/prompt1 out -n 500 --min-per-source 20 --id-field art_id
  curator run searches.json out --live --db out/curator.db`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, flags, args[0], args[1])
		},
	}

	flags.ReconcileFlags = cmdutil.AddReconcileFlags(cmd)
	flags.ExportFlags = cmdutil.AddExportFlags(cmd)
	flags.SelectionFlags = cmdutil.AddSelectionFlags(cmd)
	flags.SearchFlags = cmdutil.AddSearchFlags(cmd)
	cmd.Flags().StringVar(&flags.DB, "db", "",
		"Record the run in this SQLite database (default from config)")
	cmd.Flags().BoolVar(&flags.Live, "live", false,
		"Treat the first argument as a searches file and run the searches")

	return cmd
}

// summary is the structured form of the command output.
type summary struct {
	RunID      string            `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Catalog    string            `json:"catalog" yaml:"catalog"`
	Provenance string            `json:"provenance" yaml:"provenance"`
	Subset     string            `json:"subset" yaml:"subset"`
	Unique     int               `json:"unique_items" yaml:"unique_items"`
	Selection  selection.Summary `json:"selection" yaml:"selection"`
	Missing    int               `json:"missing" yaml:"missing"`
	Warnings   []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func execute(cmd *cobra.Command, app appcontext.Interface, flags *Flags, input, outputDir string) error {
	ctx := cmdutil.Context(cmd, app)
	settings := app.Settings()
	flags.ReconcileFlags.Resolve(settings)
	if err := flags.SelectionFlags.Resolve(cmd, settings); err != nil {
		return err
	}
	if flags.DB == "" {
		flags.DB = settings.DBPath
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	srcs, err := buildSources(cmd, settings, flags, input)
	if err != nil {
		return err
	}

	lock, err := workspace.Acquire(outputDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	opts := []curator.RunOption{
		curator.WithOutputDir(lock.Dir()),
		curator.WithName(reconcile.ExportName(flags.Name, input)),
		curator.WithYAML(flags.YAML),
		curator.WithIDField(flags.IDField),
		curator.WithTargetSize(flags.TargetSize),
		curator.WithMinPerSource(flags.MinPerSource),
		curator.WithSeed(flags.Seed),
		curator.WithInput(input),
	}
	if flags.DB != "" {
		st, err := store.Open(flags.DB)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		opts = append(opts, curator.WithStore(st))
	}

	res, err := curator.Run(ctx, srcs, opts...)
	if err != nil {
		return err
	}

	if err := printResult(printer, res); err != nil {
		return err
	}

	warnings := warningsOf(res)
	if len(warnings) > 0 {
		_ = notes.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d input problems", len(warnings))).WithDetails(warnings...))
	}
	if res.Selection.HasShortfalls() {
		_ = notes.WriteAlert(selection.Shortfalls(res.Selection))
	}
	if !res.Audit.Missing.Empty() {
		_ = notes.WriteAlert(filter.Missing(res.Audit.Missing))
	}

	success := alerts.NewSuccess(fmt.Sprintf("Selected %d of %d items", len(res.Selection.Selections), res.Reconciled.Catalog.Len())).
		WithDetails(res.Paths.Catalog(), res.Paths.ProvenanceCSV(), res.Paths.Selection(), res.Paths.Subset())
	if res.RunID != "" {
		success = success.WithDetails("run " + res.RunID)
	}
	return notes.WriteAlert(success)
}

func buildSources(cmd *cobra.Command, settings appcontext.Settings, flags *Flags, input string) (*sources.Sources, error) {
	if !flags.Live {
		return sources.NewSources(files.New(input, files.WithPrefix(flags.Prefix))), nil
	}
	searches, err := vectorstock.LoadSearches(input)
	if err != nil {
		return nil, err
	}
	if len(searches) == 0 {
		return nil, &errors.ValidationError{Field: "searches", Value: input, Message: "no searches in file"}
	}
	client := flags.SearchFlags.Client(cmd, settings)
	return sources.NewSources(vectorstock.NewSource(client, searches)), nil
}

func warningsOf(res *curator.Result) []string {
	warnings := make([]string, 0, len(res.Reconciled.SourceWarnings)+len(res.Reconciled.Warnings))
	warnings = append(warnings, res.Reconciled.SourceWarnings...)
	return append(warnings, res.Reconciled.Warnings...)
}

func printResult(printer *cmdutil.Printer, res *curator.Result) error {
	if printer.Structured() {
		return printer.Print(summary{
			RunID:      res.RunID,
			Catalog:    res.Paths.Catalog(),
			Provenance: res.Paths.ProvenanceCSV(),
			Subset:     res.Paths.Subset(),
			Unique:     res.Reconciled.Catalog.Len(),
			Selection:  selection.NewSummary(res.Paths.Selection(), res.Selection),
			Missing:    res.Audit.Missing.Count,
			Warnings:   warningsOf(res),
		})
	}
	if err := printer.Table("Reconciliation", output.ReconcileStats(res.Reconciled.Result)); err != nil {
		return err
	}
	if err := printer.Table("Items by number of sources", output.ProvenanceDistribution(res.Reconciled.Provenance)); err != nil {
		return err
	}
	if err := selection.Print(printer, selection.Summary{}, res.Selection); err != nil {
		return err
	}
	return printer.Table("Filtered catalog", filter.Table(res.Audit.Subset.Metadata))
}
