package selector

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/provenance"
)

// Reason records which tier selected an item.
type Reason string

// Selection reasons, in tier order.
const (
	ReasonMultiSource    Reason = "multi_source"
	ReasonMinRequirement Reason = "min_requirement"
	ReasonProportional   Reason = "proportional"
	ReasonFillToTarget   Reason = "fill_to_target"
)

// Reasons lists every reason in tier order.
var Reasons = []Reason{ReasonMultiSource, ReasonMinRequirement, ReasonProportional, ReasonFillToTarget}

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// Selection is one chosen item.
type Selection struct {
	ItemID     catalogs.ItemID
	Provenance []catalogs.SourceName
	Reason     Reason
}

// ShortfallKind distinguishes the two ways a run can come up short.
type ShortfallKind string

// Shortfall kinds.
const (
	ShortfallTarget       ShortfallKind = "target"
	ShortfallMinPerSource ShortfallKind = "min_per_source"
)

// Shortfall reports a soft constraint that could not be met. It is never
// an error.
type Shortfall struct {
	Kind      ShortfallKind
	Source    catalogs.SourceName // empty for target shortfalls
	Required  int
	Available int
}

// String implements fmt.Stringer.
func (s Shortfall) String() string {
	if s.Kind == ShortfallMinPerSource {
		return fmt.Sprintf("source %s: wanted %d, only %d available", s.Source, s.Required, s.Available)
	}
	return fmt.Sprintf("target %d not reachable, only %d available", s.Required, s.Available)
}

// Result is the outcome of a selection run.
type Result struct {
	Selections []Selection
	Shortfalls []Shortfall
	Metadata   ResultMetadata
}

// ResultMetadata describes how a selection was produced.
type ResultMetadata struct {
	StartTime utc.Time
	EndTime   utc.Time
	Duration  time.Duration

	Seed            uint64
	RequestedTarget int
	Target          int
	MinPerSource    int
	UniverseSize    int
	Sources         []catalogs.SourceName

	Stats ResultStatistics
}

// ResultStatistics counts selections per tier.
type ResultStatistics struct {
	MultiSource    int
	MinRequirement int
	Proportional   int
	FillToTarget   int
	Total          int
}

func (s *ResultStatistics) count(reason Reason) {
	switch reason {
	case ReasonMultiSource:
		s.MultiSource++
	case ReasonMinRequirement:
		s.MinRequirement++
	case ReasonProportional:
		s.Proportional++
	case ReasonFillToTarget:
		s.FillToTarget++
	}
	s.Total++
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Selections: []Selection{},
		Shortfalls: []Shortfall{},
		Metadata: ResultMetadata{
			StartTime: utc.Now(),
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = utc.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Time.Sub(r.Metadata.StartTime.Time)
}

// IDs returns the selected item IDs in selection order.
func (r *Result) IDs() []catalogs.ItemID {
	return IDs(r.Selections)
}

// HasShortfalls reports whether any soft constraint was missed.
func (r *Result) HasShortfalls() bool {
	return len(r.Shortfalls) > 0
}

// Distribution summarizes a selection per source and per reason.
type Distribution struct {
	BySource map[catalogs.SourceName]int
	ByReason map[Reason]int
}

// Distribution counts the selected items carrying each source and the
// selections made by each tier. An item with several sources counts once
// toward each of them.
func (r *Result) Distribution() Distribution {
	return Summarize(r.Selections)
}

// Summarize computes the Distribution of any selection list.
func Summarize(selections []Selection) Distribution {
	d := Distribution{
		BySource: make(map[catalogs.SourceName]int),
		ByReason: make(map[Reason]int),
	}
	for _, sel := range selections {
		d.ByReason[sel.Reason]++
		for _, source := range sel.Provenance {
			d.BySource[source]++
		}
	}
	return d
}

// Sources returns the sources of the distribution sorted by name.
func (d Distribution) Sources() []catalogs.SourceName {
	names := make([]catalogs.SourceName, 0, len(d.BySource))
	for name := range d.BySource {
		names = append(names, name)
	}
	catalogs.SortSources(names)
	return names
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	var sb strings.Builder
	meta := r.Metadata
	fmt.Fprintf(&sb, "Selected %d of %d items (target %d", meta.Stats.Total, meta.UniverseSize, meta.Target)
	if meta.RequestedTarget != meta.Target {
		fmt.Fprintf(&sb, ", requested %d", meta.RequestedTarget)
	}
	fmt.Fprintf(&sb, ", min per source %d, seed %d)\n", meta.MinPerSource, meta.Seed)

	dist := r.Distribution()
	for _, reason := range Reasons {
		if n := dist.ByReason[reason]; n > 0 {
			fmt.Fprintf(&sb, "  %s: %d\n", reason, n)
		}
	}
	for _, s := range r.Shortfalls {
		fmt.Fprintf(&sb, "  shortfall: %s\n", s)
	}
	return sb.String()
}

// IDs extracts the item IDs of selections in order.
func IDs(selections []Selection) []catalogs.ItemID {
	ids := make([]catalogs.ItemID, len(selections))
	for i, sel := range selections {
		ids[i] = sel.ItemID
	}
	return ids
}

// Provenance rebuilds the provenance map carried by selections.
func Provenance(selections []Selection) provenance.Map {
	m := make(provenance.Map, len(selections))
	for _, sel := range selections {
		for _, source := range sel.Provenance {
			m.Add(sel.ItemID, source)
		}
	}
	return m
}
