// Package filter implements the filter command, which projects the
// payloads of a selection out of a catalog export.
package filter

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/audit"
	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/selector"
)

// Flags holds the filter command flags.
type Flags struct {
	IDField string
	Out     string
}

// NewCommand creates the filter command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "filter <selection.csv> <catalog.json>",
		GroupID: "core",
		Short:   "Extract the selected items from a catalog",
		Long: `Filter keeps the catalog items named in a selection CSV, in catalog order,
and writes them with selection metadata as {total_count,
selection_metadata, items}.

Selected items the catalog lacks are reported as a warning; the selection
and the catalog have drifted apart.`,
		Example: `  curator filter prompt1_selected_items.csv prompt1_unique_items.json
  curator filter picks.csv catalog.json --out subset.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, flags, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&flags.IDField, "id-field", "",
		"Record field holding the item ID (default from config)")
	cmd.Flags().StringVar(&flags.Out, "out", "",
		"Subset JSON path (default: next to the catalog export)")

	return cmd
}

// summary is the structured form of the command output.
type summary struct {
	Out      string               `json:"out" yaml:"out"`
	Metadata audit.SubsetMetadata `json:"selection_metadata" yaml:"selection_metadata"`
	Missing  []catalogs.ItemID    `json:"missing_sample,omitempty" yaml:"missing_sample,omitempty"`
}

func execute(cmd *cobra.Command, app appcontext.Interface, flags *Flags, selectionPath, catalogPath string) error {
	ctx := cmdutil.Context(cmd, app)
	if flags.IDField == "" {
		flags.IDField = app.Settings().IDField
	}

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	selections, err := selector.LoadCSV(selectionPath)
	if err != nil {
		return err
	}
	doc, err := catalogs.LoadDocument(catalogPath)
	if err != nil {
		return err
	}
	cat, skipped := doc.Catalog(flags.IDField)
	if skipped > 0 {
		_ = notes.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d catalog records have no %s", skipped, flags.IDField)))
	}

	res, err := audit.FilterSelections(ctx, cat, selections)
	if err != nil {
		return err
	}

	out := flags.Out
	if out == "" {
		out = DefaultOut(catalogPath)
	}
	lock, err := workspace.Acquire(filepath.Dir(out))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	if err := audit.SaveSubset(out, res.Subset); err != nil {
		return err
	}

	if printer.Structured() {
		if err := printer.Print(summary{Out: out, Metadata: res.Subset.Metadata, Missing: res.Missing.Sample}); err != nil {
			return err
		}
	} else if err := printer.Table("Filtered catalog", Table(res.Subset.Metadata)); err != nil {
		return err
	}

	if !res.Missing.Empty() {
		_ = notes.WriteAlert(Missing(res.Missing))
	}
	return notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Saved %d items", res.Subset.TotalCount)).WithDetails(out))
}

// Table lays out subset metadata as a key/value table.
func Table(m audit.SubsetMetadata) output.Data {
	return output.Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Catalog Items", strconv.Itoa(m.OriginalTotal)},
			{"Selected", strconv.Itoa(m.SelectedCount)},
			{"Found", strconv.Itoa(m.FoundCount)},
			{"Missing", strconv.Itoa(m.MissingCount)},
		},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight},
	}
}

// Missing turns a missing-item report into a warning alert.
func Missing(m audit.Missing) *alerts.Alert {
	sample := make([]string, len(m.Sample))
	for i, id := range m.Sample {
		sample[i] = string(id)
	}
	return alerts.NewWarning(fmt.Sprintf("%d selected items not found in catalog", m.Count)).
		WithDetails("sample: " + strings.Join(sample, ", "))
}

// DefaultOut places the subset next to the catalog export, reusing its run
// name.
func DefaultOut(catalogPath string) string {
	dir := filepath.Dir(catalogPath)
	base := filepath.Base(catalogPath)
	name := strings.TrimSuffix(base, constants.CatalogSuffix)
	if name == base {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" {
		name = constants.DefaultRunName
	}
	return filepath.Join(dir, name+constants.SubsetSuffix)
}
