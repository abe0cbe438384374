package output

import (
	"sort"
	"strconv"

	"github.com/agentstation/curator/internal/store"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/selector"
)

// ReconcileStats lays out reconciliation counters as a key/value table.
func ReconcileStats(res *reconciler.Result) Data {
	stats := res.Metadata.Stats
	return Data{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Sources", strconv.Itoa(stats.SourcesProcessed)},
			{"Records", strconv.Itoa(stats.RecordsProcessed)},
			{"Unique Items", strconv.Itoa(stats.UniqueItems)},
			{"Duplicates", strconv.Itoa(stats.DuplicatesAbsorbed)},
			{"Skipped", strconv.Itoa(stats.RecordsSkipped)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// ProvenanceDistribution shows how many items were seen by how many sources.
func ProvenanceDistribution(m provenance.Map) Data {
	dist := m.Distribution()
	counts := make([]int, 0, len(dist))
	for n := range dist {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	rows := make([][]string, 0, len(counts))
	for _, n := range counts {
		rows = append(rows, []string{strconv.Itoa(n), strconv.Itoa(dist[n])})
	}
	return Data{
		Headers:         []string{"Sources", "Items"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignRight},
	}
}

// ReasonCounts shows selections per tier, in tier order.
func ReasonCounts(res *selector.Result) Data {
	dist := res.Distribution()
	rows := make([][]string, 0, len(selector.Reasons)+1)
	for _, reason := range selector.Reasons {
		rows = append(rows, []string{string(reason), strconv.Itoa(dist.ByReason[reason])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(len(res.Selections))})
	return Data{
		Headers:         []string{"Reason", "Selected"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// SourceCoverage shows how many selected items each source contributed.
func SourceCoverage(dist selector.Distribution) Data {
	names := dist.Sources()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{string(name), strconv.Itoa(dist.BySource[name])})
	}
	return Data{
		Headers:         []string{"Source", "Selected"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// Runs lists recorded runs.
func Runs(runs []store.Run) Data {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		finished := "-"
		if r.Finished() {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
			r.Input,
			strconv.Itoa(r.Target),
			strconv.Itoa(r.SelectedCount),
			strconv.Itoa(r.MissingCount),
		})
	}
	return Data{
		Headers: []string{"ID", "Started", "Finished", "Input", "Target", "Selected", "Missing"},
		Rows:    rows,
	}
}
