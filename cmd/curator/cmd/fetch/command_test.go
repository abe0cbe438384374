package fetch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/internal/appcontext"
)

func searchServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("keywords") {
		case "broken":
			http.Error(w, "upstream failure", http.StatusBadGateway)
			return
		case "busy":
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"images":[{"art_id":1},{"art_id":2}]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeSearchList(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searches.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runFetch(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := &appcontext.Mock{OutputFormatFunc: func() string { return "json" }}
	cmd := NewCommand(app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFetchSavesEverySearch(t *testing.T) {
	srv := searchServer(t)
	list := writeSearchList(t, `[{"name":"cats","keywords":"cat"},{"keywords":"broken"}]`)
	out := t.TempDir()

	stdout, stderr, err := runFetch(t, list, out, "--base-url", srv.URL, "--rate", "0")
	require.NoError(t, err)

	var results []outcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "cats", results[0].Search)
	assert.Equal(t, 2, results[0].Images)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "Search_2", results[1].Search)
	assert.NotEmpty(t, results[1].Error)

	assert.FileExists(t, filepath.Join(out, "search_1", "search_results.json"))
	assert.FileExists(t, filepath.Join(out, "search_2", "search_error.json"))
	assert.True(t, strings.Contains(stderr, "Saved 1 of 2 searches"))
}

func TestFetchFailsWhenEverySearchFails(t *testing.T) {
	srv := searchServer(t)
	list := writeSearchList(t, `[{"keywords":"broken"}]`)

	_, _, err := runFetch(t, list, t.TempDir(), "--base-url", srv.URL, "--rate", "0")
	assert.Error(t, err)
}

func TestFetchRejectsEmptyList(t *testing.T) {
	list := writeSearchList(t, `[]`)

	_, _, err := runFetch(t, list, t.TempDir())
	assert.Error(t, err)
}

func TestFetchFlagsRateLimitedSearches(t *testing.T) {
	srv := searchServer(t)
	list := writeSearchList(t, `[{"keywords":"cat"},{"keywords":"busy"}]`)

	stdout, stderr, err := runFetch(t, list, t.TempDir(), "--base-url", srv.URL, "--rate", "0")
	require.NoError(t, err)

	var results []outcome
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.False(t, results[0].RateLimited)
	assert.True(t, results[1].RateLimited)
	assert.Contains(t, stderr, "lower --rate")
}
