// Package fetch implements the fetch command, which runs a list of named
// searches and saves each response in its own source folder.
package fetch

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/internal/sources/vectorstock"
	"github.com/agentstation/curator/internal/workspace"
	"github.com/agentstation/curator/pkg/errors"
)

// NewCommand creates the fetch command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *cmdutil.SearchFlags

	cmd := &cobra.Command{
		Use:     "fetch <searches.json> <output-dir>",
		GroupID: "core",
		Short:   "Run named searches and save their results",
		Long: `Fetch runs every search in a JSON list against the search API and saves
each response under <output-dir>/search_N, ready for reconcile.

Each folder receives search_query.json and search_params.json, then
search_results.json on success or search_error.json on failure. A failed
search does not stop the batch.`,
		Example: `  curator fetch searches.json data/prompt1
  curator fetch searches.json data/prompt1 --rate 0.5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, app, flags, args[0], args[1])
		},
	}

	flags = cmdutil.AddSearchFlags(cmd)
	return cmd
}

// outcome is the structured form of one search result.
type outcome struct {
	Search string `json:"search" yaml:"search"`
	Dir    string `json:"dir" yaml:"dir"`
	Images int    `json:"images" yaml:"images"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`

	RateLimited bool `json:"rate_limited,omitempty" yaml:"rate_limited,omitempty"`
}

func execute(cmd *cobra.Command, app appcontext.Interface, flags *cmdutil.SearchFlags, searchesPath, outputDir string) error {
	ctx := cmdutil.Context(cmd, app)

	printer, err := cmdutil.NewPrinter(cmd.OutOrStdout(), app)
	if err != nil {
		return err
	}
	notes := cmdutil.Alerts(cmd.ErrOrStderr(), app, printer.Format())

	searches, err := vectorstock.LoadSearches(searchesPath)
	if err != nil {
		return err
	}
	if len(searches) == 0 {
		return &errors.ValidationError{Field: "searches", Value: searchesPath, Message: "no searches in file"}
	}

	lock, err := workspace.Acquire(outputDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	client := flags.Client(cmd, app.Settings())
	outcomes, err := client.RunBatch(ctx, lock.Dir(), searches)
	if err != nil {
		return err
	}

	results, failed := summarize(outcomes)
	if printer.Structured() {
		if err := printer.Print(results); err != nil {
			return err
		}
	} else if err := printer.Table("", table(results)); err != nil {
		return err
	}

	for _, o := range results {
		if o.Error != "" {
			alert := alerts.NewWarning(fmt.Sprintf("Search %s failed", o.Search)).WithDetails(o.Error)
			if o.RateLimited {
				alert = alert.WithDetails("the API is rate limiting requests, lower --rate")
			}
			_ = notes.WriteAlert(alert)
		}
	}
	if failed == len(results) {
		return errors.WrapResource("fetch", "searches", searchesPath, fmt.Errorf("all %d searches failed", failed))
	}
	return notes.WriteAlert(alerts.NewSuccess(fmt.Sprintf("Saved %d of %d searches to %s",
		len(results)-failed, len(results), lock.Dir())))
}

func summarize(outcomes []vectorstock.Outcome) ([]outcome, int) {
	results := make([]outcome, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		r := outcome{Search: o.Name, Dir: o.Dir}
		if o.Err != nil {
			r.Error = o.Err.Error()
			r.RateLimited = errors.IsRateLimited(o.Err)
			failed++
		} else if o.Saved != nil {
			r.Images = o.Saved.Images
		}
		results = append(results, r)
	}
	return results, failed
}

func table(results []outcome) output.Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Error != "" {
			status = "failed"
		}
		rows = append(rows, []string{r.Search, r.Dir, strconv.Itoa(r.Images), status})
	}
	return output.Data{
		Headers:         []string{"Search", "Folder", "Images", "Status"},
		Rows:            rows,
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignLeft},
	}
}
