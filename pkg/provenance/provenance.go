// Package provenance records which sources surfaced each catalog item.
//
// A Map is a set-valued index ItemID → {SourceName}. Insertion is
// idempotent, so feeding the same batch twice leaves the map unchanged.
// The flat export joins the sorted source names with ";" (see WriteCSV).
package provenance

import (
	"sort"
	"strings"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
)

// Map tracks the source set of every item.
type Map map[catalogs.ItemID]map[catalogs.SourceName]struct{}

// Add records that source surfaced id. It reports whether the pair was new.
func (m Map) Add(id catalogs.ItemID, source catalogs.SourceName) bool {
	set, ok := m[id]
	if !ok {
		set = make(map[catalogs.SourceName]struct{})
		m[id] = set
	}
	if _, seen := set[source]; seen {
		return false
	}
	set[source] = struct{}{}
	return true
}

// Has reports whether source surfaced id.
func (m Map) Has(id catalogs.ItemID, source catalogs.SourceName) bool {
	_, ok := m[id][source]
	return ok
}

// Count returns the number of distinct sources for id.
func (m Map) Count(id catalogs.ItemID) int {
	return len(m[id])
}

// Sources returns the sorted source names for id.
func (m Map) Sources(id catalogs.ItemID) []catalogs.SourceName {
	set := m[id]
	names := make([]catalogs.SourceName, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	catalogs.SortSources(names)
	return names
}

// Joined returns the sorted source names for id joined with ";".
func (m Map) Joined(id catalogs.ItemID) string {
	return Join(m.Sources(id))
}

// IDs returns every tracked item in ItemID order.
func (m Map) IDs() []catalogs.ItemID {
	ids := make([]catalogs.ItemID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	catalogs.SortItemIDs(ids)
	return ids
}

// SourceNames returns the sorted union of all sources.
func (m Map) SourceNames() []catalogs.SourceName {
	seen := make(map[catalogs.SourceName]struct{})
	for _, set := range m {
		for name := range set {
			seen[name] = struct{}{}
		}
	}
	names := make([]catalogs.SourceName, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	catalogs.SortSources(names)
	return names
}

// Distribution maps source-set cardinality to the number of items with it.
func (m Map) Distribution() map[int]int {
	dist := make(map[int]int)
	for _, set := range m {
		dist[len(set)]++
	}
	return dist
}

// Clone returns a deep copy.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, set := range m {
		cp := make(map[catalogs.SourceName]struct{}, len(set))
		for name := range set {
			cp[name] = struct{}{}
		}
		out[id] = cp
	}
	return out
}

// Join renders source names in sorted, deduplicated, ";"-joined form.
func Join(names []catalogs.SourceName) string {
	uniq := dedupe(names)
	parts := make([]string, len(uniq))
	for i, name := range uniq {
		parts[i] = string(name)
	}
	return strings.Join(parts, constants.ProvenanceSeparator)
}

// Split parses a ";"-joined source list, trimming blanks and duplicates.
func Split(joined string) []catalogs.SourceName {
	var names []catalogs.SourceName
	for _, part := range strings.Split(joined, constants.ProvenanceSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, catalogs.SourceName(part))
		}
	}
	return dedupe(names)
}

func dedupe(names []catalogs.SourceName) []catalogs.SourceName {
	seen := make(map[catalogs.SourceName]struct{}, len(names))
	out := make([]catalogs.SourceName, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tracker manages provenance tracking during reconciliation.
type Tracker interface {
	// Track records that source surfaced id
	Track(id catalogs.ItemID, source catalogs.SourceName) bool

	// Map returns a copy of the complete provenance map
	Map() Map
}

// tracker is the default implementation.
type tracker struct {
	provenance Map
}

// NewTracker creates a new provenance tracker.
func NewTracker() Tracker {
	return &tracker{provenance: make(Map)}
}

// Track records that source surfaced id.
func (t *tracker) Track(id catalogs.ItemID, source catalogs.SourceName) bool {
	return t.provenance.Add(id, source)
}

// Map returns a copy to prevent external modification.
func (t *tracker) Map() Map {
	return t.provenance.Clone()
}
