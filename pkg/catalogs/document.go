package catalogs

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// Document is the flat-file container for a catalog: {total_count, items}.
type Document struct {
	TotalCount int      `json:"total_count"`
	Items      []Record `json:"items"`
}

// wireDocument accepts both the current and the legacy artwork container.
type wireDocument struct {
	TotalCount  *int     `json:"total_count"`
	Items       []Record `json:"items"`
	LegacyTotal *int     `json:"total_unique_artworks"`
	LegacyItems []Record `json:"artworks"`
}

// NewDocument wraps the catalog payloads in a Document.
func NewDocument(c *Catalog) *Document {
	return &Document{
		TotalCount: c.Len(),
		Items:      c.Records(),
	}
}

// DecodeDocument reads a Document. Numbers are kept as json.Number so that
// large integer IDs survive a round trip unchanged.
func DecodeDocument(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var wire wireDocument
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}

	doc := &Document{Items: wire.Items}
	if doc.Items == nil {
		doc.Items = wire.LegacyItems
	}
	switch {
	case wire.TotalCount != nil:
		doc.TotalCount = *wire.TotalCount
	case wire.LegacyTotal != nil:
		doc.TotalCount = *wire.LegacyTotal
	default:
		doc.TotalCount = len(doc.Items)
	}
	return doc, nil
}

// Encode writes the document as indented JSON without HTML escaping.
func (d *Document) Encode(w io.Writer) error {
	return encodeJSON(w, d)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Catalog indexes the document items by idField. Records without a usable
// ID are counted in skipped and left out.
func (d *Document) Catalog(idField string) (cat *Catalog, skipped int) {
	cat = New()
	for _, record := range d.Items {
		id, ok := record.ID(idField)
		if !ok {
			skipped++
			continue
		}
		cat.Add(Item{ID: id, Payload: record})
	}
	return cat, skipped
}

// LoadDocument reads a Document from path.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := DecodeDocument(f)
	if err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return doc, nil
}

// SaveDocument writes doc to path as indented JSON, creating parent
// directories.
func SaveDocument(path string, doc any) error {
	return writeFile(path, func(w io.Writer) error {
		return encodeJSON(w, doc)
	})
}

// Save writes the catalog document to path.
func Save(path string, c *Catalog) error {
	return writeFile(path, NewDocument(c).Encode)
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}
