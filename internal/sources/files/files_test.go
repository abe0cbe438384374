package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/sources"
)

func writeResults(t *testing.T, dir, folder, body string) {
	t.Helper()
	path := filepath.Join(dir, folder)
	require.NoError(t, os.MkdirAll(path, 0o755))
	if body != "" {
		require.NoError(t, os.WriteFile(filepath.Join(path, "search_results.json"), []byte(body), 0o644))
	}
}

func TestBatchesReadsFoldersInOrder(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "search_2", `{"results":{"images":[{"art_id":3},{"art_id":4}]}}`)
	writeResults(t, dir, "search_1", `{"results":{"images":[{"art_id":1}]}}`)
	writeResults(t, dir, "search_10", `{"results":{"images":[]}}`)
	writeResults(t, dir, "other", `{"results":{"images":[{"art_id":9}]}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "search_notes.txt"), []byte("x"), 0o644))

	src := New(dir)
	assert.Equal(t, sources.FilesID, src.ID())

	result, err := src.Batches(context.Background())
	require.NoError(t, err)

	names := make([]catalogs.SourceName, len(result.Batches))
	for i, b := range result.Batches {
		names[i] = b.Source
	}
	assert.Equal(t, []catalogs.SourceName{"search_1", "search_10", "search_2"}, names)
	assert.Len(t, result.Batches[2].Records, 2)
	assert.Empty(t, result.Warnings)

	id, ok := result.Batches[0].Records[0].ID("art_id")
	require.True(t, ok)
	assert.Equal(t, catalogs.ItemID("1"), id)
}

func TestBatchesWarnsOnBadFolders(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "search_1", "")
	writeResults(t, dir, "search_2", `{not json`)
	writeResults(t, dir, "search_3", `{"results":{"count":0}}`)
	writeResults(t, dir, "search_4", `{"results":{"images":[{"art_id":"a"}]}}`)

	result, err := New(dir).Batches(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Batches, 4)
	require.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0], "search_1: search_results.json does not exist")
	assert.Contains(t, result.Warnings[1], "search_2: cannot parse")
	assert.Contains(t, result.Warnings[2], "search_3: no images found")
	assert.Empty(t, result.Batches[0].Records)
	assert.Len(t, result.Batches[3].Records, 1)
}

func TestBatchesCustomPrefix(t *testing.T) {
	dir := t.TempDir()
	writeResults(t, dir, "run_a", `{"results":{"images":[{"art_id":1}]}}`)
	writeResults(t, dir, "search_1", `{"results":{"images":[{"art_id":2}]}}`)

	result, err := New(dir, WithPrefix("run_")).Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, catalogs.SourceName("run_a"), result.Batches[0].Source)
}

func TestBatchesRejectsMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).Batches(context.Background())
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(file).Batches(context.Background())
	assert.True(t, errors.IsValidationError(err))
}
