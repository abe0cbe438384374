package provenance_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/provenance"
)

func sampleMap() provenance.Map {
	m := make(provenance.Map)
	m.Add("3", "search_2")
	m.Add("1", "search_1")
	m.Add("2", "search_2")
	m.Add("2", "search_1")
	m.Add("3", "search_1")
	m.Add("10", "search_3")
	return m
}

func TestMapAddIsIdempotent(t *testing.T) {
	m := make(provenance.Map)
	assert.True(t, m.Add("1", "search_1"))
	assert.False(t, m.Add("1", "search_1"))
	assert.True(t, m.Add("1", "search_2"))

	assert.Equal(t, 2, m.Count("1"))
	assert.True(t, m.Has("1", "search_2"))
	assert.False(t, m.Has("1", "search_9"))
	assert.Equal(t, 0, m.Count("missing"))
}

func TestMapQueries(t *testing.T) {
	m := sampleMap()

	assert.Equal(t, []catalogs.ItemID{"1", "2", "3", "10"}, m.IDs())
	assert.Equal(t, []catalogs.SourceName{"search_1", "search_2", "search_3"}, m.SourceNames())
	assert.Equal(t, "search_1;search_2", m.Joined("2"))
	assert.Equal(t, map[int]int{1: 2, 2: 2}, m.Distribution())
}

func TestCloneIsIndependent(t *testing.T) {
	m := sampleMap()
	cp := m.Clone()
	cp.Add("1", "search_9")

	assert.False(t, m.Has("1", "search_9"))
	assert.True(t, cp.Has("1", "search_9"))
}

func TestJoinAndSplit(t *testing.T) {
	assert.Equal(t, "a;b", provenance.Join([]catalogs.SourceName{"b", "a", "b"}))
	assert.Equal(t, []catalogs.SourceName{"a", "b"}, provenance.Split(" b ; a;;b "))
	assert.Empty(t, provenance.Split(""))
}

func TestTracker(t *testing.T) {
	tr := provenance.NewTracker()
	assert.True(t, tr.Track("7", "search_2"))
	assert.False(t, tr.Track("7", "search_2"))
	tr.Track("7", "search_1")

	snapshot := tr.Map()
	assert.Equal(t, []catalogs.SourceName{"search_1", "search_2"}, snapshot.Sources("7"))
	snapshot.Add("8", "search_1")
	assert.Len(t, tr.Map(), 1)
}

func TestCSVRoundTrip(t *testing.T) {
	m := sampleMap()

	var buf bytes.Buffer
	require.NoError(t, provenance.WriteCSV(&buf, m))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"item_id,sources",
		"1,search_1",
		"2,search_1;search_2",
		"3,search_1;search_2",
		"10,search_3",
	}, lines)

	parsed, err := provenance.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}

func TestReadCSVLegacyHeaderAndBlankRows(t *testing.T) {
	input := "art_id,search_folders\n5,search_2;search_1\n\n6,search_3\n"

	m, err := provenance.ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count("5"))
	assert.Equal(t, 1, m.Count("6"))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing column", "item_id,sources\n5\n"},
		{"empty sources", "item_id,sources\n5, ; \n"},
		{"empty id", "item_id,sources\n ,search_1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provenance.ReadCSV(strings.NewReader(tt.input))
			var parseErr *errors.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 2, parseErr.Line)
		})
	}
}

func TestFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	m := sampleMap()

	csvPath := filepath.Join(dir, "out", "provenance.csv")
	require.NoError(t, provenance.SaveCSV(csvPath, m))
	fromCSV, err := provenance.LoadCSV(csvPath)
	require.NoError(t, err)
	assert.Equal(t, m, fromCSV)

	yamlPath := filepath.Join(dir, "provenance.yaml")
	require.NoError(t, provenance.Save(yamlPath, m))
	fromYAML, err := provenance.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, m, fromYAML)

	missing, err := provenance.Load(filepath.Join(dir, "nope.yaml"))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
