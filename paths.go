package curator

import (
	"path/filepath"

	"github.com/agentstation/curator/pkg/constants"
)

// Paths names the export files of one run. Every file lives in Dir and is
// prefixed with Name.
type Paths struct {
	Dir  string
	Name string
}

// NewPaths returns the export layout for name under dir. An empty name
// falls back to constants.DefaultRunName.
func NewPaths(dir, name string) Paths {
	if name == "" {
		name = constants.DefaultRunName
	}
	return Paths{Dir: dir, Name: name}
}

func (p Paths) file(suffix string) string {
	return filepath.Join(p.Dir, p.Name+suffix)
}

// Catalog is the deduplicated catalog export.
func (p Paths) Catalog() string { return p.file(constants.CatalogSuffix) }

// ProvenanceCSV is the item_id,sources export.
func (p Paths) ProvenanceCSV() string { return p.file(constants.ProvenanceCSVSuffix) }

// ProvenanceYAML is the human-readable provenance export.
func (p Paths) ProvenanceYAML() string { return p.file(constants.ProvenanceYAMLSuffix) }

// Selection is the selection CSV export.
func (p Paths) Selection() string { return p.file(constants.SelectionSuffix) }

// Subset is the filtered catalog export.
func (p Paths) Subset() string { return p.file(constants.SubsetSuffix) }
