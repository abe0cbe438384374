// Package runs implements the runs command, which lists and exports runs
// recorded in the run store.
package runs

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/internal/store"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/selector"
)

// Flags holds the runs command flags.
type Flags struct {
	DB         string
	Limit      int
	Selection  string
	Provenance string
}

// NewCommand creates the runs command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "runs [run-id]",
		GroupID: "management",
		Short:   "List recorded runs or show one",
		Long: `Runs lists the runs recorded in the run store, newest first. Given a run
ID it shows that run's selection by tier and source and its shortfalls,
and can export the recorded selection and provenance again.`,
		Example: `  curator runs --db out/curator.db
  curator runs 6f1c... --db out/curator.db --selection picks.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.DB == "" {
				flags.DB = app.Settings().DBPath
			}
			if flags.DB == "" {
				return &errors.ValidationError{Field: "db", Message: "no run store configured, pass --db or set db_path"}
			}
			st, err := store.Open(flags.DB)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if len(args) == 0 {
				return list(cmd, app, st, flags)
			}
			return show(cmd, app, st, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.DB, "db", "",
		"Run store database (default from config)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 20,
		"Maximum runs to list, 0 for all")
	cmd.Flags().StringVar(&flags.Selection, "selection", "",
		"Export the run's selection to this CSV path")
	cmd.Flags().StringVar(&flags.Provenance, "provenance", "",
		"Export the run's provenance to this CSV path")

	return cmd
}

func list(cmd *cobra.Command, app appcontext.Interface, st *store.Store, flags *Flags) error {
	ctx := cmdutil.Context(cmd, app)
	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}

	recorded, err := st.ListRuns(ctx, flags.Limit)
	if err != nil {
		return err
	}
	if printer.Structured() {
		return printer.Print(output.Runs(recorded))
	}
	return printer.Table("", output.Runs(recorded))
}

// detail is the structured form of one run.
type detail struct {
	Run        store.Run               `json:"run" yaml:"run"`
	ByReason   map[selector.Reason]int `json:"by_reason" yaml:"by_reason"`
	Shortfalls []string                `json:"shortfalls,omitempty" yaml:"shortfalls,omitempty"`
}

func show(cmd *cobra.Command, app appcontext.Interface, st *store.Store, flags *Flags, id string) error {
	ctx := cmdutil.Context(cmd, app)
	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	run, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	selections, err := st.LoadSelections(ctx, id)
	if err != nil {
		return err
	}
	shortfalls, err := st.LoadShortfalls(ctx, id)
	if err != nil {
		return err
	}
	dist := selector.Summarize(selections)

	messages := make([]string, len(shortfalls))
	for i, sf := range shortfalls {
		messages[i] = sf.String()
	}

	if printer.Structured() {
		if err := printer.Print(detail{Run: *run, ByReason: dist.ByReason, Shortfalls: messages}); err != nil {
			return err
		}
	} else {
		if err := printer.Table("Run", runTable(run)); err != nil {
			return err
		}
		if err := printer.Table("Selection by source", output.SourceCoverage(dist)); err != nil {
			return err
		}
	}
	if len(messages) > 0 {
		_ = notes.WriteAlert(alerts.NewWarning(fmt.Sprintf("%d selection shortfalls", len(messages))).WithDetails(messages...))
	}

	if flags.Selection != "" {
		if err := export(flags.Selection, func(path string) error {
			return selector.SaveCSV(path, selections)
		}); err != nil {
			return err
		}
		_ = notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Exported %d selections", len(selections))).WithDetails(flags.Selection))
	}
	if flags.Provenance != "" {
		prov, err := st.LoadProvenance(ctx, id)
		if err != nil {
			return err
		}
		if err := export(flags.Provenance, func(path string) error {
			return provenance.SaveCSV(path, prov)
		}); err != nil {
			return err
		}
		_ = notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Exported provenance of %d items", len(prov))).WithDetails(flags.Provenance))
	}
	return nil
}

// export writes path while holding the lock on its directory.
func export(path string, save func(string) error) error {
	lock, err := workspace.Acquire(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	return save(path)
}

func runTable(r *store.Run) output.Data {
	finished := "-"
	if r.Finished() {
		finished = r.FinishedAt.Format("2006-01-02 15:04:05")
	}
	return output.Data{
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"ID", r.ID},
			{"Input", r.Input},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05")},
			{"Finished", finished},
			{"Seed", strconv.FormatUint(r.Seed, 10)},
			{"Target", fmt.Sprintf("%d (requested %d)", r.Target, r.RequestedTarget)},
			{"Min Per Source", strconv.Itoa(r.MinPerSource)},
			{"Universe", strconv.Itoa(r.UniverseSize)},
			{"Selected", strconv.Itoa(r.SelectedCount)},
			{"Missing", strconv.Itoa(r.MissingCount)},
		},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft},
	}
}
