package reconciler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/provenance"
)

// Result represents the outcome of a reconciliation operation.
type Result struct {
	// Core data
	Catalog    *catalogs.Catalog
	Provenance provenance.Map

	// Metadata
	Metadata ResultMetadata

	// Non-fatal data-quality issues, e.g. records without an ID
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime utc.Time
	EndTime   utc.Time
	Duration  time.Duration

	// Sources in first-processed order
	Sources []catalogs.SourceName

	// IDField is the record field used as item identifier
	IDField string

	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	RecordsProcessed   int
	RecordsSkipped     int
	DuplicatesAbsorbed int
	UniqueItems        int
	SourcesProcessed   int
	TotalTimeMs        int64
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Provenance: make(provenance.Map),
		Warnings:   []string{},
		Metadata: ResultMetadata{
			StartTime: utc.Now(),
			Sources:   []catalogs.SourceName{},
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = utc.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Time.Sub(r.Metadata.StartTime.Time)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}

// HasWarnings reports whether any records were skipped.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Summary returns a human-readable summary of the result, including how
// many items appeared in how many sources.
func (r *Result) Summary() string {
	var sb strings.Builder
	stats := r.Metadata.Stats
	fmt.Fprintf(&sb, "Reconciled %d sources: %d records, %d unique items, %d duplicates absorbed",
		stats.SourcesProcessed, stats.RecordsProcessed, stats.UniqueItems, stats.DuplicatesAbsorbed)
	if stats.RecordsSkipped > 0 {
		fmt.Fprintf(&sb, ", %d skipped", stats.RecordsSkipped)
	}
	sb.WriteString("\n")

	dist := r.Provenance.Distribution()
	counts := make([]int, 0, len(dist))
	for n := range dist {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		fmt.Fprintf(&sb, "  %d items appeared in %d source(s)\n", dist[n], n)
	}
	return sb.String()
}

func skippedWarning(source catalogs.SourceName, index int, field string) string {
	return fmt.Sprintf("%s: record %d has no usable %s", source, index, field)
}
