package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/cmd/curator/cmd/fetch"
	"github.com/agentstation/curator/cmd/curator/cmd/filter"
	"github.com/agentstation/curator/cmd/curator/cmd/reconcile"
	"github.com/agentstation/curator/cmd/curator/cmd/run"
	"github.com/agentstation/curator/cmd/curator/cmd/runs"
	"github.com/agentstation/curator/cmd/curator/cmd/selection"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(fetch.NewCommand(a))
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(selection.NewCommand(a))
	rootCmd.AddCommand(filter.NewCommand(a))
	rootCmd.AddCommand(run.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(runs.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("curator %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:     %s\n", a.commit)
				cmd.Printf("  built:      %s\n", a.date)
				cmd.Printf("  built by:   %s\n", a.builtBy)
				cmd.Printf("  go version: %s\n", runtime.Version())
				cmd.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
