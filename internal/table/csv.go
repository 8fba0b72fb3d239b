// Package table reads and writes model.Table as CSV.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Read parses CSV from r into a Table. The first record is the header and
// becomes the column set; short records are padded with empty cells, long
// records are truncated to the header width.
func Read(r io.Reader) (model.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows, normalized below

	header, err := reader.Read()
	if err == io.EOF {
		return model.Table{}, eris.New("table: empty input")
	}
	if err != nil {
		return model.Table{}, eris.Wrap(err, "table: read header")
	}

	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}

	t := model.Table{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Table{}, eris.Wrap(err, "table: read row")
		}

		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Load reads a CSV file from disk.
func Load(path string) (model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Table{}, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close()

	return Read(f)
}

// Write serializes a Table as CSV, header first, rows in order. Cells for
// columns missing from a row are written empty.
func Write(w io.Writer, t model.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return eris.Wrap(err, "table: write header")
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return eris.Wrap(err, "table: write row")
		}
	}

	writer.Flush()
	return eris.Wrap(writer.Error(), "table: flush")
}

// Export writes a Table to a CSV file.
func Export(path string, t model.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "table: create %s", path)
	}
	defer f.Close()

	return Write(f, t)
}
