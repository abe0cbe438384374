package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/selector"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))

	assert.Equal(t, FormatYAML, DetectFormat("yaml"))
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := Data{Headers: []string{"Source", "Selected"}, Rows: [][]string{{"search_1", "4"}}}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), "search_1")
	assert.Contains(t, buf.String(), "4")
}

func TestStructuredFormatsUseRecords(t *testing.T) {
	data := Data{Headers: []string{"Unique Items", "Value"}, Rows: [][]string{{"a", "1"}}}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, data))
	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []map[string]string{{"unique_items": "a", "value": "1"}}, got)

	buf.Reset()
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, data))
	assert.Contains(t, buf.String(), "unique_items: a")
}

func TestReflectionTables(t *testing.T) {
	type row struct {
		SelectedCount int `json:"selected_count"`
		Name          string
		hidden        bool
	}
	d := convertToTableData([]row{{SelectedCount: 3, Name: "x"}})
	require.NotNil(t, d)
	assert.Equal(t, []string{"Selected Count", "Name"}, d.Headers)
	assert.Equal(t, [][]string{{"3", "x"}}, d.Rows)

	single := convertToTableData(&row{SelectedCount: 1})
	require.NotNil(t, single)
	assert.Equal(t, []string{"Property", "Value"}, single.Headers)
	assert.Len(t, single.Rows, 2)

	assert.Nil(t, convertToTableData(42))
	_ = row{}.hidden
}

func TestDomainTables(t *testing.T) {
	m := make(provenance.Map)
	m.Add("1", "a")
	m.Add("2", "a")
	m.Add("2", "b")

	dist := ProvenanceDistribution(m)
	assert.Equal(t, [][]string{{"1", "1"}, {"2", "1"}}, dist.Rows)

	res, err := selector.Select(context.Background(), selector.Input{Provenance: m},
		selector.WithTargetSize(2), selector.WithMinPerSource(0))
	require.NoError(t, err)

	reasons := ReasonCounts(res)
	assert.Equal(t, []string{"total", "2"}, reasons.Rows[len(reasons.Rows)-1])

	coverage := SourceCoverage(res.Distribution())
	assert.Equal(t, [][]string{{"a", "2"}, {"b", "1"}}, coverage.Rows)
}
