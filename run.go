package curator

import (
	"context"

	"github.com/agentstation/curator/internal/store"
	"github.com/agentstation/curator/pkg/audit"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/selector"
	"github.com/agentstation/curator/pkg/sources"
)

// Result is the outcome of a full run.
type Result struct {
	// RunID is set when the run was recorded in a store
	RunID string

	Paths      Paths
	Reconciled *Reconciled
	Selection  *selector.Result
	Audit      *audit.Result
}

// Run reconciles srcs, selects a subset and filters the catalog down to
// it, writing every export under the output directory.
func Run(ctx context.Context, srcs *sources.Sources, opts ...RunOption) (_ *Result, err error) {
	// Step 1: Parse and validate options
	options := NewRunOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	paths := options.Paths()
	result := &Result{Paths: paths}

	// Step 2: Reconcile all sources
	reconciled, err := Reconcile(ctx, srcs, options.IDField)
	if err != nil {
		return nil, err
	}
	result.Reconciled = reconciled

	if err := SaveReconciled(paths, reconciled.Result, options.WriteYAML); err != nil {
		return nil, err
	}

	// Step 3: Record the run when a store is configured
	if options.Store != nil {
		result.RunID, err = options.Store.CreateRun(ctx, storeParams(options))
		if err != nil {
			return nil, err
		}
		id := result.RunID
		ctx = logging.WithRun(ctx, id)
		defer func() {
			if err != nil {
				discardRun(ctx, options.Store, id)
			}
		}()

		if _, err := options.Store.SaveProvenance(ctx, id, reconciled.Provenance); err != nil {
			return nil, err
		}
	}
	logger := logging.FromContext(ctx)

	// Step 4: Select the subset
	selection, err := selector.Select(ctx, selector.Input{
		Catalog:    reconciled.Catalog,
		Provenance: reconciled.Provenance,
		Sources:    reconciled.Metadata.Sources,
	}, options.SelectorOptions()...)
	if err != nil {
		return nil, err
	}
	result.Selection = selection

	if err := selector.SaveCSV(paths.Selection(), selection.Selections); err != nil {
		return nil, errors.WrapResource("save", "selection", paths.Selection(), err)
	}
	if options.Store != nil {
		if err := options.Store.SaveSelection(ctx, result.RunID, selection); err != nil {
			return nil, err
		}
	}

	// Step 5: Project the selected payloads
	filtered, err := audit.FilterSelections(ctx, reconciled.Catalog, selection.Selections)
	if err != nil {
		return nil, err
	}
	result.Audit = filtered

	if err := audit.SaveSubset(paths.Subset(), filtered.Subset); err != nil {
		return nil, errors.WrapResource("save", "subset", paths.Subset(), err)
	}

	// Step 6: Close the run record
	if options.Store != nil {
		if err := options.Store.CompleteRun(ctx, result.RunID, filtered.Missing.Count); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("dir", paths.Dir).
		Int("selected", len(selection.Selections)).
		Int("shortfalls", len(selection.Shortfalls)).
		Int("missing", filtered.Missing.Count).
		Msg("Run complete")

	return result, nil
}

// discardRun removes a run that failed before completion so it is not
// listed as still in progress.
func discardRun(ctx context.Context, st *store.Store, id string) {
	logger := logging.FromContext(ctx)
	if err := st.DeleteRun(context.WithoutCancel(ctx), id); err != nil {
		logger.Warn().Err(err).Msg("Failed to discard incomplete run")
		return
	}
	logger.Debug().Msg("Discarded incomplete run")
}
