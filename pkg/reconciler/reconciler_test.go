package reconciler_test

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/reconciler"
)

// record builds a payload the way the JSON loader would decode it.
func record(id any, title string) catalogs.Record {
	if n, ok := id.(int); ok {
		id = json.Number(strconv.Itoa(n))
	}
	return catalogs.Record{"art_id": id, "title": title}
}

func batch(source string, records ...catalogs.Record) reconciler.Batch {
	return reconciler.Batch{Source: catalogs.SourceName(source), Records: records}
}

func newReconciler(t *testing.T) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(reconciler.WithIDField("art_id"))
	require.NoError(t, err)
	return r
}

func TestReconcilerBasic(t *testing.T) {
	r := newReconciler(t)

	result, err := r.Batches(context.Background(), []reconciler.Batch{
		batch("search_1", record(1, "one"), record(2, "two from 1"), record(3, "three")),
		batch("search_2", record(2, "two from 2"), record(3, "three again"), record(4, "four")),
	})
	require.NoError(t, err)

	assert.Equal(t, []catalogs.ItemID{"1", "2", "3", "4"}, result.Catalog.IDs())

	item, err := result.Catalog.Find("2")
	require.NoError(t, err)
	assert.Equal(t, "two from 1", item.Payload["title"], "first occurrence wins")

	want := map[catalogs.ItemID][]catalogs.SourceName{
		"1": {"search_1"},
		"2": {"search_1", "search_2"},
		"3": {"search_1", "search_2"},
		"4": {"search_2"},
	}
	got := make(map[catalogs.ItemID][]catalogs.SourceName)
	for _, id := range result.Provenance.IDs() {
		got[id] = result.Provenance.Sources(id)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("provenance mismatch (-want +got):\n%s", diff)
	}

	stats := result.Metadata.Stats
	assert.Equal(t, 6, stats.RecordsProcessed)
	assert.Equal(t, 2, stats.DuplicatesAbsorbed)
	assert.Equal(t, 4, stats.UniqueItems)
	assert.Equal(t, 2, stats.SourcesProcessed)
	assert.Equal(t, []catalogs.SourceName{"search_1", "search_2"}, result.Metadata.Sources)
	assert.Equal(t, "art_id", result.Metadata.IDField)
	assert.False(t, result.HasWarnings())
	assert.Contains(t, result.Summary(), "2 items appeared in 2 source(s)")
}

func TestReconcileSameSourceTwiceIsIdempotent(t *testing.T) {
	r := newReconciler(t)
	b := batch("search_1", record(1, "one"), record(2, "two"))

	once, err := r.Batches(context.Background(), []reconciler.Batch{b})
	require.NoError(t, err)
	twice, err := r.Batches(context.Background(), []reconciler.Batch{b, b})
	require.NoError(t, err)

	assert.Equal(t, once.Catalog.Items(), twice.Catalog.Items())
	assert.Equal(t, once.Provenance, twice.Provenance)
	assert.Equal(t, 1, twice.Metadata.Stats.SourcesProcessed)
}

func TestProvenanceIsOrderIndependent(t *testing.T) {
	r := newReconciler(t)
	a := batch("search_a", record(1, "a1"), record(2, "a2"))
	b := batch("search_b", record(2, "b2"), record(3, "b3"))

	ab, err := r.Batches(context.Background(), []reconciler.Batch{a, b})
	require.NoError(t, err)
	ba, err := r.Batches(context.Background(), []reconciler.Batch{b, a})
	require.NoError(t, err)

	assert.Equal(t, ab.Provenance, ba.Provenance)

	fromAB, _ := ab.Catalog.Get("2")
	fromBA, _ := ba.Catalog.Get("2")
	assert.Equal(t, "a2", fromAB.Payload["title"])
	assert.Equal(t, "b2", fromBA.Payload["title"])
}

func TestProvenanceCompleteness(t *testing.T) {
	r := newReconciler(t)
	batches := []reconciler.Batch{
		batch("s1", record(1, ""), record(5, "")),
		batch("s2", record(5, ""), record(6, "")),
		batch("s3", record(6, ""), record(5, ""), record(7, "")),
	}
	result, err := r.Batches(context.Background(), batches)
	require.NoError(t, err)

	for _, id := range result.Catalog.IDs() {
		expected := make(provenance.Map)
		for _, b := range batches {
			for _, rec := range b.Records {
				if recID, _ := rec.ID("art_id"); recID == id {
					expected.Add(id, b.Source)
				}
			}
		}
		assert.NotZero(t, result.Provenance.Count(id))
		assert.Equal(t, expected.Sources(id), result.Provenance.Sources(id), "item %s", id)
	}
	assert.Len(t, result.Provenance, result.Catalog.Len())
}

func TestRecordsWithoutIDAreSkipped(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	r := newReconciler(t)
	result, err := r.Batches(ctx, []reconciler.Batch{
		batch("search_1",
			record(1, "ok"),
			catalogs.Record{"title": "no id"},
			catalogs.Record{"art_id": nil},
			catalogs.Record{"art_id": true},
			record("  ", "blank"),
		),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Catalog.Len())
	assert.Equal(t, 4, result.Metadata.Stats.RecordsSkipped)
	assert.Len(t, result.Warnings, 4)
	assert.Contains(t, result.Summary(), "4 skipped")
	tl.AssertContains(t, "Record missing item ID")
	tl.AssertContains(t, `"source":"search_1"`)
}

func TestMixedIDRepresentationsMerge(t *testing.T) {
	r := newReconciler(t)
	result, err := r.Batches(context.Background(), []reconciler.Batch{
		batch("s1", catalogs.Record{"art_id": json.Number("42")}),
		batch("s2", catalogs.Record{"art_id": "42"}),
		batch("s3", catalogs.Record{"art_id": float64(42)}),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Catalog.Len())
	assert.Equal(t, 3, result.Provenance.Count("42"))
}

func TestValidation(t *testing.T) {
	_, err := reconciler.New(reconciler.WithIDField("  "))
	assert.True(t, errors.IsValidationError(err))

	r := newReconciler(t)
	_, err = r.Batches(context.Background(), []reconciler.Batch{batch("", record(1, ""))})
	assert.True(t, errors.IsValidationError(err))
}

func TestDefaultIDField(t *testing.T) {
	r, err := reconciler.New()
	require.NoError(t, err)

	result, err := r.Batches(context.Background(), []reconciler.Batch{
		batch("s1", catalogs.Record{"item_id": "x"}, catalogs.Record{"art_id": "y"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []catalogs.ItemID{"x"}, result.Catalog.IDs())
	assert.Equal(t, 1, result.Metadata.Stats.RecordsSkipped)
}
