package reconcile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/internal/appcontext"
)

func TestExportName(t *testing.T) {
	assert.Equal(t, "given", ExportName("given", "data/prompt1"))
	assert.Equal(t, "prompt1", ExportName("", "data/prompt1/"))
	assert.Equal(t, "searches", ExportName("", filepath.Join("lists", "searches.json")))
	assert.Equal(t, "", ExportName("", "."))
}

func TestReconcilePrintsSummary(t *testing.T) {
	in := t.TempDir()
	for name, body := range map[string]string{
		"search_1": `{"results":{"images":[{"art_id":1},{"art_id":2}]}}`,
		"search_2": `{"results":{"images":[{"art_id":2},{"art_id":3}]}}`,
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(in, name), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(in, name, "search_results.json"), []byte(body), 0o644))
	}

	cmd := NewCommand(&appcontext.Mock{})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{in, "--id-field", "art_id", "--name", "p1"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "Reconciled 2 sources: 4 records, 3 unique items, 1 duplicates absorbed")
	assert.Contains(t, stdout.String(), "1 items appeared in 2 source(s)")
	assert.Contains(t, stdout.String(), "2 items appeared in 1 source(s)")
	assert.FileExists(t, filepath.Join(in, "p1_unique_items.json"))
}
