// Package audit projects a selection back onto the full catalog and reports
// selected IDs the catalog no longer contains.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/selector"
)

// Subset is the filtered catalog export.
type Subset struct {
	TotalCount int               `json:"total_count"`
	Metadata   SubsetMetadata    `json:"selection_metadata"`
	Items      []catalogs.Record `json:"items"`
}

// SubsetMetadata records how the subset relates to the catalog it came from.
type SubsetMetadata struct {
	OriginalTotal int `json:"original_total"`
	SelectedCount int `json:"selected_count"`
	FoundCount    int `json:"found_count"`
	MissingCount  int `json:"missing_count"`
}

// Missing lists selected IDs absent from the catalog. A non-empty report is
// a consistency warning: the selection and the catalog have drifted apart.
type Missing struct {
	Count  int
	Sample []catalogs.ItemID // at most constants.MissingPreviewLimit, in selection order
}

// Empty reports whether every selected ID was found.
func (m Missing) Empty() bool {
	return m.Count == 0
}

// String implements fmt.Stringer.
func (m Missing) String() string {
	if m.Empty() {
		return "all selected items found"
	}
	sample := make([]string, len(m.Sample))
	for i, id := range m.Sample {
		sample[i] = string(id)
	}
	s := fmt.Sprintf("%d selected items missing from catalog: %s", m.Count, strings.Join(sample, ", "))
	if m.Count > len(m.Sample) {
		s += ", ..."
	}
	return s
}

// Result is the outcome of Filter.
type Result struct {
	Subset  *Subset
	Missing Missing
}

// Filter returns the payloads of the selected IDs in catalog order.
// Duplicate IDs count once. IDs the catalog lacks are reported in
// Result.Missing and logged, never dropped silently.
func Filter(ctx context.Context, cat *catalogs.Catalog, ids []catalogs.ItemID) (*Result, error) {
	if cat == nil {
		return nil, &errors.ValidationError{Field: "catalog", Message: "catalog is required"}
	}

	wanted := make(map[catalogs.ItemID]struct{}, len(ids))
	missing := Missing{Sample: []catalogs.ItemID{}}
	for _, id := range ids {
		if _, dup := wanted[id]; dup {
			continue
		}
		wanted[id] = struct{}{}
		if !cat.Has(id) {
			missing.Count++
			if len(missing.Sample) < constants.MissingPreviewLimit {
				missing.Sample = append(missing.Sample, id)
			}
		}
	}

	items := make([]catalogs.Record, 0, len(wanted)-missing.Count)
	for _, item := range cat.Items() {
		if _, ok := wanted[item.ID]; ok {
			items = append(items, item.Payload)
		}
	}

	subset := &Subset{
		TotalCount: len(items),
		Metadata: SubsetMetadata{
			OriginalTotal: cat.Len(),
			SelectedCount: len(wanted),
			FoundCount:    len(items),
			MissingCount:  missing.Count,
		},
		Items: items,
	}

	logger := logging.FromContext(ctx)
	if !missing.Empty() {
		sample := make([]string, len(missing.Sample))
		for i, id := range missing.Sample {
			sample[i] = string(id)
		}
		logger.Warn().
			Int("missing", missing.Count).
			Strs("sample", sample).
			Msg("Selected items not found in catalog")
	}
	logger.Info().
		Int("original_total", subset.Metadata.OriginalTotal).
		Int("selected", subset.Metadata.SelectedCount).
		Int("found", subset.Metadata.FoundCount).
		Msg("Filtered catalog")

	return &Result{Subset: subset, Missing: missing}, nil
}

// FilterSelections is Filter over the IDs of a selection list.
func FilterSelections(ctx context.Context, cat *catalogs.Catalog, selections []selector.Selection) (*Result, error) {
	return Filter(ctx, cat, selector.IDs(selections))
}

// SaveSubset writes the subset export to path.
func SaveSubset(path string, subset *Subset) error {
	return catalogs.SaveDocument(path, subset)
}

// LoadSubset reads a subset export from path.
func LoadSubset(path string) (*Subset, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var subset Subset
	if err := dec.Decode(&subset); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &subset, nil
}
