// Package selector draws a bounded, reproducible subset from a reconciled
// catalog, favoring items seen by several sources and keeping every
// source represented.
//
// Selection runs in four tiers, each drawing only from items no earlier
// tier took:
//
//  1. multi_source: every item reported by two or more sources.
//  2. min_requirement: backfill each source up to the per-source minimum.
//  3. proportional: split the remaining budget by source pool size.
//  4. fill_to_target: top up from whatever is left.
//
// The combined list is shuffled once at the end.
package selector

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/provenance"
)

// Input is the data a selection run draws from.
type Input struct {
	// Catalog is optional. When set, each of its items must have provenance.
	Catalog *catalogs.Catalog

	// Provenance maps every candidate item to the sources that reported it.
	Provenance provenance.Map

	// Sources lists the known sources. Defaults to every source in Provenance.
	Sources []catalogs.SourceName
}

// state is the working set of one selection run.
type state struct {
	rng      *rand.Rand
	prov     provenance.Map
	universe []catalogs.ItemID
	sources  []catalogs.SourceName
	selected map[catalogs.ItemID]struct{}

	target int
	min    int

	result *Result
	logger *zerolog.Logger
}

// Select runs the tiered selection over in.
func Select(ctx context.Context, in Input, opts ...Option) (*Result, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapResource("select", "selection", "", err)
	}

	s := newState(ctx, in, o)
	s.run()

	result := s.result
	result.Finalize()

	s.logger.Info().
		Int("selected", result.Metadata.Stats.Total).
		Int("target", s.target).
		Int("multi_source", result.Metadata.Stats.MultiSource).
		Int("min_requirement", result.Metadata.Stats.MinRequirement).
		Int("proportional", result.Metadata.Stats.Proportional).
		Int("fill_to_target", result.Metadata.Stats.FillToTarget).
		Int("shortfalls", len(result.Shortfalls)).
		Msg("Selection complete")

	return result, nil
}

func validate(in Input) error {
	if len(in.Provenance) == 0 {
		return &errors.ValidationError{Field: "provenance", Message: "no items to select from"}
	}
	for id, sources := range in.Provenance {
		if len(sources) == 0 {
			return &errors.ValidationError{Field: "provenance", Value: string(id), Message: "item has empty provenance"}
		}
	}
	if in.Catalog != nil {
		for _, id := range in.Catalog.IDs() {
			if in.Provenance.Count(id) == 0 {
				return &errors.ValidationError{Field: "catalog", Value: string(id), Message: "item has no provenance"}
			}
		}
	}
	for _, source := range in.Sources {
		if source == "" {
			return &errors.ValidationError{Field: "sources", Message: "source name cannot be empty"}
		}
	}
	return nil
}

func newState(ctx context.Context, in Input, o *options) *state {
	sources := in.Sources
	if len(sources) == 0 {
		sources = in.Provenance.SourceNames()
	} else {
		sources = uniqueSources(sources)
	}

	s := &state{
		rng:      rand.New(rand.NewPCG(o.seed, o.seed)), //nolint:gosec // reproducible sampling, not security
		prov:     in.Provenance,
		universe: in.Provenance.IDs(),
		sources:  sources,
		selected: make(map[catalogs.ItemID]struct{}),
		target:   o.targetSize,
		min:      o.minPerSource,
		result:   NewResult(),
		logger:   logging.FromContext(ctx),
	}

	meta := &s.result.Metadata
	meta.Seed = o.seed
	meta.RequestedTarget = o.targetSize
	meta.MinPerSource = o.minPerSource
	meta.UniverseSize = len(s.universe)
	meta.Sources = sources

	if s.target > len(s.universe) {
		s.shortfall(Shortfall{Kind: ShortfallTarget, Required: s.target, Available: len(s.universe)})
		s.target = len(s.universe)
	}
	meta.Target = s.target
	return s
}

func (s *state) run() {
	if s.multiSource() {
		s.shuffle()
		return
	}
	s.minPerSource()
	s.proportional()
	s.fillToTarget()
	s.shuffle()
}

func (s *state) remaining() int {
	return s.target - len(s.result.Selections)
}

func (s *state) add(id catalogs.ItemID, reason Reason) {
	s.selected[id] = struct{}{}
	s.result.Selections = append(s.result.Selections, Selection{
		ItemID:     id,
		Provenance: s.prov.Sources(id),
		Reason:     reason,
	})
	s.result.Metadata.Stats.count(reason)
}

func (s *state) shortfall(sf Shortfall) {
	s.result.Shortfalls = append(s.result.Shortfalls, sf)
	s.logger.Warn().
		Str("kind", string(sf.Kind)).
		Str("source", string(sf.Source)).
		Int("required", sf.Required).
		Int("available", sf.Available).
		Msg("Selection shortfall")
}

// draw samples n items from pool without replacement. The pool is sorted
// before shuffling so the outcome depends only on its contents and the
// generator state.
func (s *state) draw(pool []catalogs.ItemID, n int) []catalogs.ItemID {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	pool = append([]catalogs.ItemID(nil), pool...)
	catalogs.SortItemIDs(pool)
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// pool returns the unselected items reported by source, in ID order.
func (s *state) pool(source catalogs.SourceName) []catalogs.ItemID {
	var ids []catalogs.ItemID
	for _, id := range s.universe {
		if _, taken := s.selected[id]; taken {
			continue
		}
		if s.prov.Has(id, source) {
			ids = append(ids, id)
		}
	}
	return ids
}

// countSelected returns how many selected items carry source.
func (s *state) countSelected(source catalogs.SourceName) int {
	n := 0
	for id := range s.selected {
		if s.prov.Has(id, source) {
			n++
		}
	}
	return n
}

func (s *state) shuffle() {
	sel := s.result.Selections
	s.rng.Shuffle(len(sel), func(i, j int) { sel[i], sel[j] = sel[j], sel[i] })
}

func uniqueSources(names []catalogs.SourceName) []catalogs.SourceName {
	seen := make(map[catalogs.SourceName]struct{}, len(names))
	out := make([]catalogs.SourceName, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	catalogs.SortSources(out)
	return out
}
