package selector_test

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/selector"
)

// sources builds a provenance map from source name to integer item IDs.
func sources(m map[string][]int) provenance.Map {
	p := make(provenance.Map)
	for source, ids := range m {
		for _, id := range ids {
			p.Add(catalogs.ItemID(fmt.Sprint(id)), catalogs.SourceName(source))
		}
	}
	return p
}

func span(from, to int) []int {
	ids := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

func reasons(result *selector.Result) map[catalogs.ItemID]selector.Reason {
	out := make(map[catalogs.ItemID]selector.Reason, len(result.Selections))
	for _, sel := range result.Selections {
		out[sel.ItemID] = sel.Reason
	}
	return out
}

func assertNoDuplicates(t *testing.T, result *selector.Result) {
	t.Helper()
	seen := make(map[catalogs.ItemID]bool)
	for _, sel := range result.Selections {
		assert.False(t, seen[sel.ItemID], "item %s selected twice", sel.ItemID)
		seen[sel.ItemID] = true
	}
}

func TestSelectTwoSourceScenario(t *testing.T) {
	prov := sources(map[string][]int{"A": {1, 2, 3}, "B": {2, 3, 4}})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(4), selector.WithMinPerSource(1))
	require.NoError(t, err)

	assert.Equal(t, map[catalogs.ItemID]selector.Reason{
		"1": selector.ReasonProportional,
		"2": selector.ReasonMultiSource,
		"3": selector.ReasonMultiSource,
		"4": selector.ReasonFillToTarget,
	}, reasons(result))
	assert.Empty(t, result.Shortfalls)

	for _, sel := range result.Selections {
		assert.Equal(t, prov.Sources(sel.ItemID), sel.Provenance)
	}

	stats := result.Metadata.Stats
	assert.Equal(t, 2, stats.MultiSource)
	assert.Equal(t, 1, stats.Proportional)
	assert.Equal(t, 1, stats.FillToTarget)
	assert.Equal(t, 4, stats.Total)
}

func TestMultiSourceItemsAlwaysIncluded(t *testing.T) {
	prov := sources(map[string][]int{
		"search_1": span(1, 30),
		"search_2": append(span(25, 40), 3),
		"search_3": span(38, 60),
	})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(20), selector.WithMinPerSource(2))
	require.NoError(t, err)

	got := reasons(result)
	for _, id := range prov.IDs() {
		if prov.Count(id) >= 2 {
			assert.Equal(t, selector.ReasonMultiSource, got[id], "item %s", id)
		}
	}
	assert.Len(t, result.Selections, 20)
	assertNoDuplicates(t, result)
}

func TestMultiSourceOverflowTruncatesToTarget(t *testing.T) {
	prov := sources(map[string][]int{"A": span(1, 20), "B": span(1, 20), "C": span(21, 30)})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(5), selector.WithMinPerSource(3))
	require.NoError(t, err)

	require.Len(t, result.Selections, 5)
	for _, sel := range result.Selections {
		assert.Equal(t, selector.ReasonMultiSource, sel.Reason)
	}
	// Later tiers never run, so C's minimum is not even attempted.
	assert.Empty(t, result.Shortfalls)
	assertNoDuplicates(t, result)
}

func TestMinPerSourceBackfill(t *testing.T) {
	prov := sources(map[string][]int{"A": span(1, 10), "B": {11}})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(5), selector.WithMinPerSource(3))
	require.NoError(t, err)

	stats := result.Metadata.Stats
	assert.Equal(t, 0, stats.MultiSource)
	assert.Equal(t, 4, stats.MinRequirement)
	assert.Equal(t, 1, stats.Proportional)
	assert.Equal(t, 5, stats.Total)

	assert.Equal(t, selector.ReasonMinRequirement, reasons(result)["11"])
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, selector.Shortfall{
		Kind:      selector.ShortfallMinPerSource,
		Source:    "B",
		Required:  3,
		Available: 1,
	}, result.Shortfalls[0])

	dist := result.Distribution()
	assert.Equal(t, 4, dist.BySource["A"])
	assert.Equal(t, 1, dist.BySource["B"])
	assert.Equal(t, []catalogs.SourceName{"A", "B"}, dist.Sources())
}

func TestQuotaSatisfiedWhenFeasible(t *testing.T) {
	prov := sources(map[string][]int{
		"s1": span(1, 50),
		"s2": span(51, 55),
		"s3": span(56, 58),
		"s4": append(span(59, 70), 1, 2),
	})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(20), selector.WithMinPerSource(3))
	require.NoError(t, err)

	dist := result.Distribution()
	for _, source := range prov.SourceNames() {
		assert.GreaterOrEqual(t, dist.BySource[source], 3, "source %s", source)
	}
	assert.Empty(t, result.Shortfalls)
	assert.Len(t, result.Selections, 20)
}

func TestProportionalUsesShrinkingBudget(t *testing.T) {
	prov := sources(map[string][]int{"A": span(1, 60), "B": span(61, 80)})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(8), selector.WithMinPerSource(0))
	require.NoError(t, err)

	// A gets round(8*60/80)=6; B then sees a budget of 2 and rounds
	// 2*20/80=0.5 down, leaving two slots for the final tier.
	stats := result.Metadata.Stats
	assert.Equal(t, 6, stats.Proportional)
	assert.Equal(t, 2, stats.FillToTarget)
	for _, sel := range result.Selections {
		if sel.Reason == selector.ReasonProportional {
			assert.Equal(t, []catalogs.SourceName{"A"}, sel.Provenance)
		}
	}
}

func TestTargetClampedToUniverse(t *testing.T) {
	prov := sources(map[string][]int{"A": {1, 2}, "B": {3, 4}})

	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(10), selector.WithMinPerSource(1))
	require.NoError(t, err)

	assert.Len(t, result.Selections, 4)
	assert.Equal(t, 10, result.Metadata.RequestedTarget)
	assert.Equal(t, 4, result.Metadata.Target)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, selector.ShortfallTarget, result.Shortfalls[0].Kind)
	assert.Equal(t, 10, result.Shortfalls[0].Required)
	assert.Equal(t, 4, result.Shortfalls[0].Available)
	assert.Contains(t, result.Summary(), "requested 10")
}

func TestUnknownSourceYieldsShortfall(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	prov := sources(map[string][]int{"A": span(1, 10)})
	result, err := selector.Select(ctx, selector.Input{
		Provenance: prov,
		Sources:    []catalogs.SourceName{"Z", "A", "A"},
	}, selector.WithTargetSize(4), selector.WithMinPerSource(2))
	require.NoError(t, err)

	assert.Equal(t, []catalogs.SourceName{"A", "Z"}, result.Metadata.Sources)
	assert.Len(t, result.Selections, 4)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, catalogs.SourceName("Z"), result.Shortfalls[0].Source)
	assert.Equal(t, 0, result.Shortfalls[0].Available)
	tl.AssertContains(t, "Selection shortfall")
}

func TestSelectIsReproducible(t *testing.T) {
	layout := map[string][]int{
		"search_1": span(1, 40),
		"search_2": span(30, 70),
		"search_3": span(65, 120),
	}

	run := func(seed uint64) []selector.Selection {
		result, err := selector.Select(context.Background(),
			selector.Input{Provenance: sources(layout)},
			selector.WithTargetSize(30), selector.WithMinPerSource(5), selector.WithSeed(seed))
		require.NoError(t, err)
		return result.Selections
	}

	first := run(42)
	assert.Equal(t, first, run(42))
	assert.Equal(t, first, run(42))
	assert.NotEqual(t, first, run(7))
}

func TestSizeBoundAndUniqueness(t *testing.T) {
	layout := map[string][]int{
		"a": span(1, 15),
		"b": span(10, 25),
		"c": span(24, 26),
		"d": {100},
	}
	prov := sources(layout)
	for target := 1; target <= len(prov)+3; target++ {
		for minimum := 0; minimum <= 4; minimum++ {
			result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
				selector.WithTargetSize(target), selector.WithMinPerSource(minimum))
			require.NoError(t, err)

			assert.LessOrEqual(t, len(result.Selections), target)
			assert.Len(t, result.Selections, min(target, len(prov)))
			assertNoDuplicates(t, result)
			for _, sel := range result.Selections {
				assert.NotZero(t, prov.Count(sel.ItemID))
			}
		}
	}
}

func TestSelectValidation(t *testing.T) {
	prov := sources(map[string][]int{"A": {1}})
	ctx := context.Background()

	_, err := selector.Select(ctx, selector.Input{Provenance: prov}, selector.WithTargetSize(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = selector.Select(ctx, selector.Input{Provenance: prov}, selector.WithMinPerSource(-1))
	assert.True(t, errors.IsValidationError(err))

	_, err = selector.Select(ctx, selector.Input{})
	assert.True(t, errors.IsValidationError(err))

	cat := catalogs.New()
	cat.Add(catalogs.Item{ID: "1"})
	cat.Add(catalogs.Item{ID: "2"})
	_, err = selector.Select(ctx, selector.Input{Catalog: cat, Provenance: prov})
	assert.True(t, errors.IsValidationError(err))

	empty := provenance.Map{"1": {}}
	_, err = selector.Select(ctx, selector.Input{Provenance: empty})
	assert.True(t, errors.IsValidationError(err))
}

func TestSelectionCSV(t *testing.T) {
	prov := sources(map[string][]int{"A": {1, 2, 3}, "B": {2, 3, 4}})
	result, err := selector.Select(context.Background(), selector.Input{Provenance: prov},
		selector.WithTargetSize(4), selector.WithMinPerSource(1))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, selector.WriteCSV(&buf, result.Selections))
	assert.True(t, strings.HasPrefix(buf.String(), "item_id,provenance,selection_reason\n"))
	assert.Contains(t, buf.String(), "A;B,multi_source")

	path := filepath.Join(t.TempDir(), "selection.csv")
	require.NoError(t, selector.SaveCSV(path, result.Selections))
	loaded, err := selector.LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, result.Selections, loaded)
	assert.Equal(t, prov, selector.Provenance(loaded))

	_, err = selector.ReadCSV(strings.NewReader("item_id,provenance,selection_reason\n7,A,lucky\n"))
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}
