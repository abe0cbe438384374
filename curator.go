// Package curator reconciles overlapping search results into one catalog
// and derives a bounded, representative subset of it.
//
// A run collects batches from its sources, merges them with provenance,
// draws a quota-constrained selection and projects the selected payloads
// back out of the catalog. The stages live in pkg/reconciler, pkg/selector
// and pkg/audit; this package wires them to sources, exports and the run
// store.
package curator

import (
	"context"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/sources"
)

// Reconciled is a reconciliation together with the problems the sources
// reported while loading.
type Reconciled struct {
	*reconciler.Result

	// SourceWarnings are non-fatal problems met while loading batches
	SourceWarnings []string
}

// Reconcile collects the batches of every source and merges them. It fails
// when no source contributed a single item.
func Reconcile(ctx context.Context, srcs *sources.Sources, idField string) (*Reconciled, error) {
	if srcs == nil || srcs.Len() == 0 {
		return nil, &errors.ValidationError{Field: "sources", Message: "no sources configured"}
	}

	collected, err := srcs.Collect(ctx)
	if err != nil {
		return nil, err
	}

	r, err := reconciler.New(reconciler.WithIDField(idField))
	if err != nil {
		return nil, err
	}
	result, err := r.Batches(ctx, collected.Batches)
	if err != nil {
		return nil, err
	}
	if result.Catalog.Len() == 0 {
		return nil, &errors.NotFoundError{Resource: "items", ID: "any source"}
	}

	logger := logging.FromContext(ctx)
	if result.HasWarnings() {
		logger.Warn().
			Int("skipped", result.Metadata.Stats.RecordsSkipped).
			Str("id_field", idField).
			Msg("Skipped records without a usable ID")
	}
	logger.Info().
		Int("sources", result.Metadata.Stats.SourcesProcessed).
		Int("unique", result.Metadata.Stats.UniqueItems).
		Int("source_warnings", len(collected.Warnings)).
		Msg("Reconciliation complete")

	return &Reconciled{Result: result, SourceWarnings: collected.Warnings}, nil
}

// SaveReconciled writes the catalog and provenance exports.
func SaveReconciled(paths Paths, res *reconciler.Result, withYAML bool) error {
	if err := catalogs.Save(paths.Catalog(), res.Catalog); err != nil {
		return errors.WrapResource("save", "catalog", paths.Catalog(), err)
	}
	if err := provenance.SaveCSV(paths.ProvenanceCSV(), res.Provenance); err != nil {
		return errors.WrapResource("save", "provenance", paths.ProvenanceCSV(), err)
	}
	if withYAML {
		if err := provenance.Save(paths.ProvenanceYAML(), res.Provenance); err != nil {
			return errors.WrapResource("save", "provenance", paths.ProvenanceYAML(), err)
		}
	}
	return nil
}
