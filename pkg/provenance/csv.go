package provenance

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// CSVHeader is the column layout of the flat provenance export.
var CSVHeader = []string{"item_id", "sources"}

// WriteCSV writes one row per item, sorted by ItemID, with the sorted
// source names joined by ";".
func WriteCSV(w io.Writer, m Map) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, id := range m.IDs() {
		if err := cw.Write([]string{string(id), m.Joined(id)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a provenance export. The header row is skipped whatever
// its column names; blank rows are ignored.
func ReadCSV(r io.Reader) (Map, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	m := make(Map)
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: err.Error(), Err: err}
		}
		if line == 1 || isBlank(row) {
			continue
		}
		if len(row) < 2 {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: fmt.Sprintf("expected 2 columns, got %d", len(row))}
		}

		id, ok := catalogs.ParseItemID(row[0])
		if !ok {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: "empty item_id"}
		}
		names := Split(row[1])
		if len(names) == 0 {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: fmt.Sprintf("item %s has no sources", id)}
		}
		for _, name := range names {
			m.Add(id, name)
		}
	}
	return m, nil
}

// SaveCSV writes the CSV export to path.
func SaveCSV(path string, m Map) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := WriteCSV(f, m); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

// LoadCSV reads the CSV export at path.
func LoadCSV(path string) (Map, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := ReadCSV(f)
	if err != nil {
		if parseErr, ok := err.(*errors.ParseError); ok {
			parseErr.File = path
		}
		return nil, err
	}
	return m, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
