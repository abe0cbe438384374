package cmdutil

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/errors"
)

func parse(t *testing.T, args ...string) (*cobra.Command, *SelectionFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flags := AddSelectionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestSelectionFlagsFallBackToSettings(t *testing.T) {
	settings := appcontext.DefaultSettings()

	cmd, flags := parse(t)
	require.NoError(t, flags.Resolve(cmd, settings))
	assert.Equal(t, settings.TargetSize, flags.TargetSize)
	assert.Equal(t, settings.MinPerSource, flags.MinPerSource)
	assert.Equal(t, settings.Seed, flags.Seed)

	cmd, flags = parse(t, "-n", "7", "--min-per-source", "0", "--seed", "0")
	require.NoError(t, flags.Resolve(cmd, settings))
	assert.Equal(t, 7, flags.TargetSize)
	assert.Equal(t, 0, flags.MinPerSource)
	assert.Equal(t, uint64(0), flags.Seed)
}

func TestSelectionFlagsValidate(t *testing.T) {
	settings := appcontext.DefaultSettings()

	cmd, flags := parse(t, "-n", "0")
	assert.True(t, errors.IsValidationError(flags.Resolve(cmd, settings)))

	cmd, flags = parse(t, "--min-per-source", "-3")
	assert.True(t, errors.IsValidationError(flags.Resolve(cmd, settings)))
}

func TestReconcileFlagsResolve(t *testing.T) {
	flags := &ReconcileFlags{IDField: "art_id"}
	flags.Resolve(appcontext.DefaultSettings())
	assert.Equal(t, "art_id", flags.IDField)
	assert.Equal(t, "search_", flags.Prefix)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	data := output.Data{Headers: []string{"Source", "Items"}, Rows: [][]string{{"search_1", "3"}}}

	printer, err := NewPrinter(&buf, &appcontext.Mock{OutputFormatFunc: func() string { return "json" }})
	require.NoError(t, err)
	assert.True(t, printer.Structured())
	require.NoError(t, printer.Table("ignored", data))
	assert.Empty(t, buf.String())
	require.NoError(t, printer.Print(data))
	assert.JSONEq(t, `[{"source":"search_1","items":"3"}]`, buf.String())

	buf.Reset()
	printer, err = NewPrinter(&buf, &appcontext.Mock{})
	require.NoError(t, err)
	require.NoError(t, printer.Table("Sources", data))
	assert.Contains(t, buf.String(), "Sources")
	assert.Contains(t, buf.String(), "search_1")

	buf.Reset()
	require.NoError(t, printer.Text("Reconciled 2 sources\n"))
	assert.Equal(t, "\nReconciled 2 sources\n", buf.String())

	_, err = NewPrinter(&buf, &appcontext.Mock{OutputFormatFunc: func() string { return "xml" }})
	assert.Error(t, err)
}
