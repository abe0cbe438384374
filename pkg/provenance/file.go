package provenance

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// File is the YAML form of a provenance map, meant for human inspection.
type File struct {
	Provenance []Entry `yaml:"provenance"`
}

// Entry is one item and its sources.
type Entry struct {
	ItemID  catalogs.ItemID       `yaml:"item_id"`
	Sources []catalogs.SourceName `yaml:"sources"`
}

// ToFile converts m to its YAML form, entries in ItemID order.
func ToFile(m Map) *File {
	f := &File{Provenance: make([]Entry, 0, len(m))}
	for _, id := range m.IDs() {
		f.Provenance = append(f.Provenance, Entry{ItemID: id, Sources: m.Sources(id)})
	}
	return f
}

// Map converts the YAML form back into a Map.
func (f *File) Map() Map {
	m := make(Map, len(f.Provenance))
	for _, entry := range f.Provenance {
		for _, name := range entry.Sources {
			m.Add(entry.ItemID, name)
		}
	}
	return m
}

// Save writes m as YAML to path.
func Save(path string, m Map) error {
	data, err := yaml.Marshal(ToFile(m))
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	return errors.WrapIO("write", path, os.WriteFile(path, data, constants.FilePermissions))
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (Map, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return f.Map(), nil
}
