package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/pkg/errors"
)

// rootFlags are the persistent flags. They are kept apart from Config so
// that unset flags never clobber values loaded from the environment.
type rootFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
}

// Execute runs the curator CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:     "curator",
		Short:   "Reconcile search results and curate representative subsets",
		Version: a.version,
		Long: `Curator merges the results of many overlapping searches into one
deduplicated catalog, remembers which searches surfaced each item, and
draws a bounded subset that keeps every search represented.

A typical session fetches the searches, then runs the pipeline:

  curator fetch searches.json data/prompt1
  curator run data/prompt1 out --id-field art_id -n 500`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.curator.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	if a.stdout != nil {
		rootCmd.SetOut(a.stdout)
	}
	if a.stderr != nil {
		rootCmd.SetErr(a.stderr)
	}

	rootCmd.SetVersionTemplate("curator {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs. It reloads the config
// when --config names a file, applies the flags that were set and rebuilds
// the logger.
func (a *App) setupCommand(cmd *cobra.Command, flags *rootFlags) error {
	if flags.configFile != "" {
		config, err := LoadConfig(flags.configFile)
		if err != nil {
			return err
		}
		a.config = config
	}

	fs := cmd.Flags()
	if fs.Changed("verbose") {
		a.config.Verbose = flags.verbose
	}
	if fs.Changed("quiet") {
		a.config.Quiet = flags.quiet
	}
	if fs.Changed("no-color") {
		a.config.NoColor = flags.noColor
	}
	if fs.Changed("format") {
		a.config.Format = flags.format
	}
	if fs.Changed("log-level") {
		a.config.LogLevel = flags.logLevel
	}

	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}
	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		if hint := errorHint(err); hint != "" {
			_, _ = os.Stderr.WriteString("Hint: " + hint + "\n")
		}
		os.Exit(1)
	}
}

func errorHint(err error) string {
	switch {
	case errors.IsLocked(err):
		return "another curator command is writing to the same directory"
	case errors.IsValidationError(err):
		return "run with --help for usage"
	default:
		return ""
	}
}
