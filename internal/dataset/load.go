package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// loadCSV reads a delimited-text file into a Table. The first record is the
// header row; cell values are type-inferred on load.
func loadCSV(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close csv file", "path", path, "error", closeErr)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	return tableFromRecords(name, records), nil
}

// loadXLSX reads the first sheet of a spreadsheet into a Table.
func loadXLSX(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close spreadsheet", "path", path, "error", closeErr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	return tableFromRecords(name, records), nil
}

func tableFromRecords(name string, records [][]string) *Table {
	columns := records[0]

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			// Spreadsheet readers trim trailing empty cells; pad with "".
			if i < len(rec) {
				row[col] = parseCell(rec[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{Name: name, Columns: columns, Rows: rows}
}
