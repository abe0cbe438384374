package selector

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
	"github.com/agentstation/curator/pkg/provenance"
)

// CSVHeader is the column layout of the selection export.
var CSVHeader = []string{"item_id", "provenance", "selection_reason"}

// WriteCSV writes selections in order, one row each.
func WriteCSV(w io.Writer, selections []Selection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, sel := range selections {
		row := []string{string(sel.ItemID), provenance.Join(sel.Provenance), string(sel.Reason)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a selection export. The header row is skipped and blank
// rows are ignored. Unknown reasons are rejected.
func ReadCSV(r io.Reader) ([]Selection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	selections := []Selection{}
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
		if line == 1 || blank(row) {
			continue
		}
		if len(row) < len(CSVHeader) {
			return nil, &errors.ParseError{
				Format:  "csv",
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", len(CSVHeader), len(row)),
			}
		}

		id, ok := catalogs.ParseItemID(row[0])
		if !ok {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: "empty item_id"}
		}
		reason := Reason(strings.TrimSpace(row[2]))
		if !reason.Valid() {
			return nil, &errors.ParseError{Format: "csv", Line: line, Message: fmt.Sprintf("unknown selection reason %q", row[2])}
		}
		selections = append(selections, Selection{
			ItemID:     id,
			Provenance: provenance.Split(row[1]),
			Reason:     reason,
		})
	}
	return selections, nil
}

// SaveCSV writes the selection export to path.
func SaveCSV(path string, selections []Selection) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := WriteCSV(f, selections); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

// LoadCSV reads the selection export at path.
func LoadCSV(path string) ([]Selection, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	selections, err := ReadCSV(f)
	if err != nil {
		if parseErr, ok := err.(*errors.ParseError); ok {
			parseErr.File = path
		}
		return nil, err
	}
	return selections, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
