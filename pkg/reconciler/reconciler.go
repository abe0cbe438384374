// Package reconciler merges per-source result batches into one deduplicated
// catalog and a provenance map recording every source that surfaced each item.
//
// Batches are processed in the order given. The first batch containing an
// item contributes its payload; later occurrences only extend provenance.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/provenance"
)

// Batch is one source's result set.
type Batch struct {
	Source  catalogs.SourceName
	Records []catalogs.Record
}

// Reconciler is the main interface for reconciling data from multiple sources.
type Reconciler interface {
	// Batches reconciles the given batches in order.
	Batches(ctx context.Context, batches []Batch) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	idField string
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{idField: options.idField}, nil
}

// reconcileContext holds shared state for one reconciliation run.
type reconcileContext struct {
	catalog *catalogs.Catalog
	tracker provenance.Tracker
	result  *Result
	logger  *zerolog.Logger
	seen    map[catalogs.SourceName]struct{}
}

// Batches performs reconciliation source by source.
func (r *reconciler) Batches(ctx context.Context, batches []Batch) (*Result, error) {
	for i, batch := range batches {
		if batch.Source == "" {
			return nil, &errors.ValidationError{
				Field:   "source",
				Value:   i,
				Message: "batch source name cannot be empty",
			}
		}
	}

	rctx := &reconcileContext{
		catalog: catalogs.New(),
		tracker: provenance.NewTracker(),
		result:  NewResult(),
		logger:  logging.FromContext(ctx),
		seen:    make(map[catalogs.SourceName]struct{}),
	}
	rctx.result.Metadata.IDField = r.idField

	for _, batch := range batches {
		r.reconcileBatch(rctx, batch)
	}

	result := rctx.result
	result.Catalog = rctx.catalog
	result.Provenance = rctx.tracker.Map()
	result.Metadata.Stats.UniqueItems = rctx.catalog.Len()
	result.Metadata.Stats.SourcesProcessed = len(result.Metadata.Sources)
	result.Finalize()

	rctx.logger.Info().
		Int("sources", result.Metadata.Stats.SourcesProcessed).
		Int("records", result.Metadata.Stats.RecordsProcessed).
		Int("unique_items", result.Metadata.Stats.UniqueItems).
		Int("duplicates", result.Metadata.Stats.DuplicatesAbsorbed).
		Int("skipped", result.Metadata.Stats.RecordsSkipped).
		Msg("Reconciled source batches")

	return result, nil
}

// reconcileBatch folds one batch into the catalog and provenance.
func (r *reconciler) reconcileBatch(rctx *reconcileContext, batch Batch) {
	logger := rctx.logger.With().Str("source", string(batch.Source)).Logger()

	if _, ok := rctx.seen[batch.Source]; !ok {
		rctx.seen[batch.Source] = struct{}{}
		rctx.result.Metadata.Sources = append(rctx.result.Metadata.Sources, batch.Source)
	}

	stats := &rctx.result.Metadata.Stats
	for i, record := range batch.Records {
		stats.RecordsProcessed++

		id, ok := record.ID(r.idField)
		if !ok {
			stats.RecordsSkipped++
			rctx.result.Warnings = append(rctx.result.Warnings, skippedWarning(batch.Source, i, r.idField))
			logger.Warn().
				Int("index", i).
				Str("id_field", r.idField).
				Msg("Record missing item ID, skipping")
			continue
		}

		if !rctx.catalog.Add(catalogs.Item{ID: id, Payload: record}) {
			stats.DuplicatesAbsorbed++
		}
		rctx.tracker.Track(id, batch.Source)
	}

	logger.Debug().
		Int("records", len(batch.Records)).
		Int("catalog_size", rctx.catalog.Len()).
		Msg("Processed batch")
}
