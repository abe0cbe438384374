// Package selection implements the select command, which draws a bounded,
// quota-constrained subset from a provenance export.
package selection

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/selector"
)

// Flags holds the select command flags.
type Flags struct {
	*cmdutil.SelectionFlags
	Catalog string
	IDField string
	Sources []string
	Out     string
}

// NewCommand creates the select command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "select <provenance.csv>",
		GroupID: "core",
		Short:   "Draw a representative subset from a provenance export",
		Long: `Select draws at most --target items from the items listed in a provenance
export, in four tiers:

1. multi_source     every item reported by two or more sources
2. min_requirement  single-source items until each source has --min-per-source
3. proportional     remaining budget split by the size of each source's pool
4. fill_to_target   any remaining items until the target is reached

The result is shuffled and written as item_id,provenance,selection_reason.
Runs with the same inputs and --seed select the same items in the same order.`,
		Example: `  curator select data/prompt1/prompt1_provenance.csv -n 500 --min-per-source 20
  curator select prov.csv --catalog catalog.json --seed 7 --out picks.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, flags, args[0])
		},
	}

	flags.SelectionFlags = cmdutil.AddSelectionFlags(cmd)
	cmd.Flags().StringVar(&flags.Catalog, "catalog", "",
		"Catalog export to check the provenance against")
	cmd.Flags().StringVar(&flags.IDField, "id-field", "",
		"Record field holding the item ID in --catalog (default from config)")
	cmd.Flags().StringSliceVar(&flags.Sources, "sources", nil,
		"Known sources (default: every source in the provenance)")
	cmd.Flags().StringVar(&flags.Out, "out", "",
		"Selection CSV path (default: next to the provenance export)")

	return cmd
}

// Summary is the structured form of a selection result.
type Summary struct {
	Out             string                      `json:"out" yaml:"out"`
	Seed            uint64                      `json:"seed" yaml:"seed"`
	RequestedTarget int                         `json:"requested_target" yaml:"requested_target"`
	Target          int                         `json:"target" yaml:"target"`
	Selected        int                         `json:"selected" yaml:"selected"`
	ByReason        map[selector.Reason]int     `json:"by_reason" yaml:"by_reason"`
	BySource        map[catalogs.SourceName]int `json:"by_source" yaml:"by_source"`
	Shortfalls      []string                    `json:"shortfalls,omitempty" yaml:"shortfalls,omitempty"`
}

// NewSummary builds the structured summary of res.
func NewSummary(out string, res *selector.Result) Summary {
	dist := res.Distribution()
	shortfalls := make([]string, 0, len(res.Shortfalls))
	for _, sf := range res.Shortfalls {
		shortfalls = append(shortfalls, sf.String())
	}
	return Summary{
		Out:             out,
		Seed:            res.Metadata.Seed,
		RequestedTarget: res.Metadata.RequestedTarget,
		Target:          res.Metadata.Target,
		Selected:        len(res.Selections),
		ByReason:        dist.ByReason,
		BySource:        dist.BySource,
		Shortfalls:      shortfalls,
	}
}

func execute(cmd *cobra.Command, app appcontext.Interface, flags *Flags, provPath string) error {
	ctx := cmdutil.Context(cmd, app)
	settings := app.Settings()
	if err := flags.Resolve(cmd, settings); err != nil {
		return err
	}
	if flags.IDField == "" {
		flags.IDField = settings.IDField
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	prov, err := provenance.LoadCSV(provPath)
	if err != nil {
		return err
	}

	in := selector.Input{Provenance: prov}
	for _, name := range flags.Sources {
		in.Sources = append(in.Sources, catalogs.SourceName(name))
	}
	if flags.Catalog != "" {
		doc, err := catalogs.LoadDocument(flags.Catalog)
		if err != nil {
			return err
		}
		cat, skipped := doc.Catalog(flags.IDField)
		if skipped > 0 {
			_ = notes.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d catalog records have no %s", skipped, flags.IDField)))
		}
		in.Catalog = cat
	}

	res, err := selector.Select(ctx, in,
		selector.WithTargetSize(flags.TargetSize),
		selector.WithMinPerSource(flags.MinPerSource),
		selector.WithSeed(flags.Seed),
	)
	if err != nil {
		return err
	}

	out := flags.Out
	if out == "" {
		out = DefaultOut(provPath)
	}
	lock, err := workspace.Acquire(filepath.Dir(out))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	if err := selector.SaveCSV(out, res.Selections); err != nil {
		return err
	}

	if printer.Structured() {
		if err := printer.Print(NewSummary(out, res)); err != nil {
			return err
		}
	} else {
		if err := printer.Text(res.Summary()); err != nil {
			return err
		}
		if err := printer.Table("Selection by source", output.SourceCoverage(res.Distribution())); err != nil {
			return err
		}
	}
	if res.HasShortfalls() {
		_ = notes.WriteAlert(Shortfalls(res))
	}
	return notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Selected %d items", len(res.Selections))).WithDetails(out))
}

// Print renders a selection result as tables or as a structured summary.
func Print(printer *cmdutil.Printer, summary Summary, res *selector.Result) error {
	if printer.Structured() {
		return printer.Print(summary)
	}
	if err := printer.Table("Selection by tier", output.ReasonCounts(res)); err != nil {
		return err
	}
	return printer.Table("Selection by source", output.SourceCoverage(res.Distribution()))
}

// Shortfalls turns the recorded shortfalls into a warning alert.
func Shortfalls(res *selector.Result) *alerts.Alert {
	details := make([]string, 0, len(res.Shortfalls))
	for _, sf := range res.Shortfalls {
		details = append(details, sf.String())
	}
	return alerts.NewWarning(fmt.Sprintf("%d selection shortfalls", len(res.Shortfalls))).WithDetails(details...)
}

// DefaultOut places the selection next to the provenance export, reusing
// its run name.
func DefaultOut(provPath string) string {
	dir := filepath.Dir(provPath)
	name := strings.TrimSuffix(filepath.Base(provPath), constants.ProvenanceCSVSuffix)
	if name == filepath.Base(provPath) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" {
		name = constants.DefaultRunName
	}
	return filepath.Join(dir, name+constants.SelectionSuffix)
}
