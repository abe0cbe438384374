// Package sources defines the providers of per-source result batches.
// A source may read batches saved on disk by earlier searches or run the
// searches itself; either way it hands reconciliation one Batch per
// logical source together with any non-fatal problems it met.
package sources

import (
	"context"
	"sort"
	"sync"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/reconciler"
)

// ID represents the identifier of a batch source.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Known source IDs.
const (
	FilesID       ID = "files"
	VectorStockID ID = "vectorstock"
)

// Result is what a source produced.
type Result struct {
	Batches  []reconciler.Batch
	Warnings []string
}

// Source yields result batches for reconciliation.
type Source interface {
	// ID returns the identifier of this source
	ID() ID

	// Batches loads or fetches the batches. Missing or malformed inputs are
	// warnings; only conditions that make the whole source unusable fail.
	Batches(ctx context.Context) (*Result, error)
}

// Sources is a thread-safe container for managing multiple batch sources.
type Sources struct {
	mu      sync.RWMutex
	sources map[ID]Source
}

// NewSources creates a new Sources instance.
func NewSources(srcs ...Source) *Sources {
	s := &Sources{sources: make(map[ID]Source)}
	for _, src := range srcs {
		s.Set(src)
	}
	return s
}

// Get returns a source by ID.
func (s *Sources) Get(id ID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set registers src under its ID, replacing any previous one.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID()] = src
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// IDs returns the registered source IDs in sorted order.
func (s *Sources) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ID, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Collect gathers the batches of every registered source, in ID order.
func (s *Sources) Collect(ctx context.Context) (*Result, error) {
	out := &Result{}
	for _, id := range s.IDs() {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapResource("collect", "batches", string(id), err)
		}
		src, _ := s.Get(id)
		res, err := src.Batches(ctx)
		if err != nil {
			return nil, errors.WrapResource("collect", "batches", string(id), err)
		}
		out.Batches = append(out.Batches, res.Batches...)
		out.Warnings = append(out.Warnings, res.Warnings...)
	}
	return out, nil
}
