package vectorstock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/internal/sources/files"
	"github.com/agentstation/curator/internal/transport"
	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func TestParamsValidate(t *testing.T) {
	p, err := Params{Keywords: "  cats ", Color: "3498db", Category: "animals-wildlife"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "cats", p.Keywords)
	assert.Equal(t, "#3498db", p.Color)

	bad := []struct {
		name  string
		p     Params
		field string
	}{
		{"missing keywords", Params{}, "keywords"},
		{"category", Params{Keywords: "x", Category: "robots"}, "category"},
		{"order", Params{Keywords: "x", Order: "random"}, "order"},
		{"object detection", Params{Keywords: "x", ObjectDetection: "all"}, "object_detection"},
		{"object count", Params{Keywords: "x", ObjectCountMax: ptr(201)}, "object_count_max"},
		{"threshold", Params{Keywords: "x", ColorThreshold: ptr(0)}, "color_threshold"},
		{"score", Params{Keywords: "x", ScorePopular: ptr(11)}, "score_popular"},
		{"artist score", Params{Keywords: "x", ArtistScore: ptr(-1)}, "artist_score"},
		{"color length", Params{Keywords: "x", Color: "#fff"}, "color"},
		{"color digits", Params{Keywords: "x", Color: "#zzzzzz"}, "color"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Validate()
			var vErr *errors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestParamsQuery(t *testing.T) {
	q := Params{
		Keywords:       "nature landscape",
		Free:           ptr(true),
		SVGOnly:        ptr(false),
		Page:           ptr(2),
		ColorThreshold: ptr(7),
		Order:          "trending",
	}.Query()

	assert.Equal(t, "nature landscape", q.Get("keywords"))
	assert.Equal(t, "true", q.Get("free"))
	assert.Equal(t, "false", q.Get("svg_only"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "7", q.Get("color_threshold"))
	assert.Equal(t, "trending", q.Get("order"))
	assert.False(t, q.Has("category"))
	assert.False(t, q.Has("expanded"))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL+"/p1/search"),
		WithTransport(transport.New(transport.WithRateLimit(0, 0))),
	)
}

func imagesHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p1/search", r.URL.Path)
		kw := r.URL.Query().Get("keywords")
		if kw == "broken" {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		ids := map[string]string{"cats": `[{"art_id":1},{"art_id":2}]`, "dogs": `[{"art_id":2},{"art_id":3}]`}[kw]
		if ids == "" {
			ids = "[]"
		}
		_, _ = w.Write([]byte(`{"total":2,"images":` + ids + `}`))
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, imagesHandler(t))

	body, err := c.Search(context.Background(), Params{Keywords: "cats"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("2"), body["total"])

	_, err = c.Search(context.Background(), Params{Keywords: "broken"})
	assert.ErrorIs(t, err, errors.ErrUnavailable)

	_, err = c.Search(context.Background(), Params{})
	assert.True(t, errors.IsValidationError(err))
}

func TestSearchAndSaveLayout(t *testing.T) {
	c := newTestClient(t, imagesHandler(t))
	dir := filepath.Join(t.TempDir(), "search_1")

	saved, err := c.SearchAndSave(context.Background(), dir, Params{Keywords: "cats", Free: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Images)
	assert.Len(t, saved.Timestamp, len("20060102_150405"))
	assert.Contains(t, saved.URL, "keywords=cats")

	var query map[string]any
	readJSON(t, filepath.Join(dir, "search_query.json"), &query)
	assert.Equal(t, "GET", query["method"])
	assert.Equal(t, saved.URL, query["url"])

	var params map[string]any
	readJSON(t, filepath.Join(dir, "search_params.json"), &params)
	assert.Equal(t, map[string]any{"keywords": "cats", "free": true}, params["parameters"])

	var results map[string]any
	readJSON(t, filepath.Join(dir, "search_results.json"), &results)
	assert.Equal(t, "cats", results["query"])
	assert.Contains(t, results, "parameters_used")
	assert.NoFileExists(t, filepath.Join(dir, SearchErrorFile))
}

func TestSearchAndSaveRecordsFailure(t *testing.T) {
	c := newTestClient(t, imagesHandler(t))
	dir := filepath.Join(t.TempDir(), "search_1")

	_, err := c.SearchAndSave(context.Background(), dir, Params{Keywords: "broken"})
	require.Error(t, err)

	var failure map[string]any
	readJSON(t, filepath.Join(dir, SearchErrorFile), &failure)
	assert.Contains(t, failure["error"], "upstream down")
	assert.FileExists(t, filepath.Join(dir, "search_query.json"))
	assert.NoFileExists(t, filepath.Join(dir, "search_results.json"))
}

func TestRunBatchFeedsFolderLoader(t *testing.T) {
	c := newTestClient(t, imagesHandler(t))
	out := t.TempDir()

	list := filepath.Join(t.TempDir(), "searches.json")
	require.NoError(t, os.WriteFile(list, []byte(`[
		{"name": "Cats", "keywords": "cats"},
		{"keywords": "broken"},
		{"name": "Dogs", "keywords": "dogs", "order": "latest"}
	]`), 0o644))

	searches, err := LoadSearches(list)
	require.NoError(t, err)
	require.Len(t, searches, 3)
	assert.Equal(t, "latest", searches[2].Order)

	outcomes, err := c.RunBatch(context.Background(), out, searches)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "Search_2", outcomes[1].Name)
	assert.Error(t, outcomes[1].Err)
	assert.Equal(t, filepath.Join(out, "search_3"), outcomes[2].Dir)

	loaded, err := files.New(out).Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Batches, 3)
	assert.Len(t, loaded.Batches[0].Records, 2)
	assert.Empty(t, loaded.Batches[1].Records)
	require.Len(t, loaded.Warnings, 1)
	assert.True(t, strings.HasPrefix(loaded.Warnings[0], "search_2:"))
}

func TestSourceBatches(t *testing.T) {
	c := newTestClient(t, imagesHandler(t))
	src := NewSource(c, []Search{{Params: Params{Keywords: "cats"}}, {Params: Params{Keywords: "broken"}}})

	result, err := src.Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Batches, 2)
	assert.Equal(t, catalogs.SourceName("search_1"), result.Batches[0].Source)
	assert.Len(t, result.Batches[0].Records, 2)
	assert.Empty(t, result.Batches[1].Records)
	assert.Len(t, result.Warnings, 1)
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
