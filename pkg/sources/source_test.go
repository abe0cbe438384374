package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/sources"
)

type staticSource struct {
	id     sources.ID
	result *sources.Result
	err    error
}

func (s *staticSource) ID() sources.ID { return s.id }

func (s *staticSource) Batches(context.Context) (*sources.Result, error) {
	return s.result, s.err
}

func TestCollectOrdersByID(t *testing.T) {
	b := &staticSource{id: "b", result: &sources.Result{
		Batches: []reconciler.Batch{{Source: "search_2"}},
	}}
	a := &staticSource{id: "a", result: &sources.Result{
		Batches:  []reconciler.Batch{{Source: "search_1"}},
		Warnings: []string{"search_9: missing results"},
	}}

	srcs := sources.NewSources(b, a)
	assert.Equal(t, 2, srcs.Len())
	assert.Equal(t, []sources.ID{"a", "b"}, srcs.IDs())

	got, err := srcs.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Batches, 2)
	assert.Equal(t, catalogs.SourceName("search_1"), got.Batches[0].Source)
	assert.Equal(t, []string{"search_9: missing results"}, got.Warnings)
}

func TestCollectPropagatesFailure(t *testing.T) {
	srcs := sources.NewSources(&staticSource{id: "x", err: errors.ErrUnavailable})
	_, err := srcs.Collect(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnavailable)

	src, ok := srcs.Get("x")
	require.True(t, ok)
	assert.Equal(t, sources.ID("x"), src.ID())
}
