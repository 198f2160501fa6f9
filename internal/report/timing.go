package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const descriptionColumn = "Query Description"

// TimingTable persists query timings as a CSV matrix: one row per query
// description, one column per run. Each write merges against whatever is
// already at the path; new columns append, existing rows are matched by
// description, nothing is dropped. Single writer, run to completion.
type TimingTable struct {
	Path string
}

// NewTimingTable creates a table bound to a CSV path.
func NewTimingTable(path string) *TimingTable {
	return &TimingTable{Path: path}
}

// ColumnHeader builds the run column key: {collection}_{epochSeconds}.
func ColumnHeader(collection string, epoch int64) string {
	return fmt.Sprintf("%s_%d", collection, epoch)
}

// Append merges one run of unit results under the given column header
// and rewrites the file.
func (t *TimingTable) Append(column string, units []*UnitResult) error {
	header, rows, order, err := t.read()
	if err != nil {
		return err
	}

	header = append(header, column)

	for _, unit := range units {
		row, ok := rows[unit.Description]
		if !ok {
			row = map[string]string{descriptionColumn: unit.Description}
			rows[unit.Description] = row
			order = append(order, unit.Description)
		}
		if unit.Status == StatusSuccess {
			row[column] = strconv.FormatFloat(unit.Seconds, 'f', 3, 64)
		} else {
			row[column] = "ERROR"
		}
	}

	return t.write(header, rows, order)
}

// read loads the existing table, if any, preserving row order.
func (t *TimingTable) read() (header []string, rows map[string]map[string]string, order []string, err error) {
	rows = map[string]map[string]string{}
	header = []string{descriptionColumn}

	f, err := os.Open(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return header, rows, nil, nil
		}
		return nil, nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read timing table %s: %w", t.Path, err)
	}
	if len(records) == 0 {
		return header, rows, nil, nil
	}

	header = records[0]
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := map[string]string{}
		for i, cell := range record {
			if i < len(header) {
				row[header[i]] = cell
			}
		}
		desc := row[descriptionColumn]
		rows[desc] = row
		order = append(order, desc)
	}
	return header, rows, order, nil
}

func (t *TimingTable) write(header []string, rows map[string]map[string]string, order []string) error {
	if dir := filepath.Dir(t.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, desc := range order {
		row := rows[desc]
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
