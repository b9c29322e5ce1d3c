// Package table holds the in-memory record table the analytics engine runs
// over: ordered rows of typed cells loaded from heterogeneous CSV exports.
// Header normalization and type coercion happen here, once, before any
// analytics call; the engine never mutates the table.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errEmptyDate   = errors.New("empty date")
	errEmptyAmount = errors.New("empty amount")
)

// ParseError reports a cell that could not be coerced to its column type.
type ParseError struct {
	Input string
	Want  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s", e.Input, e.Want)
}

// Row maps a column name to the cell value for that row.
type Row map[string]Value

// Table is an ordered sequence of rows sharing a column set. Column order is
// preserved from the source file.
type Table struct {
	Columns []string
	Rows    []Row
}

// Normalize lowercases, trims, replaces spaces with underscores and strips
// the accented characters seen in Portuguese export headers. Both header
// preprocessing and column resolution go through this same function so the
// two layers can never disagree.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	replacer := strings.NewReplacer("ç", "c", "ã", "a", "é", "e", "í", "i", "ó", "o")
	return replacer.Replace(name)
}

// ReadCSV loads a table from CSV, normalizing header names. Every cell comes
// in as a string; call Coerce afterwards to type date and amount columns.
// Duplicate headers keep the first occurrence.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read header: %w", err)
	}

	columns := make([]string, 0, len(headers))
	seen := map[string]bool{}
	index := make([]int, 0, len(headers))
	for idx, header := range headers {
		name := Normalize(header)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, name)
		index = append(index, idx)
	}
	if len(columns) == 0 {
		return nil, errors.New("no usable columns in header")
	}

	tbl := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("unable to read CSV: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		row := make(Row, len(columns))
		for pos, name := range columns {
			cell := ""
			if index[pos] < len(record) {
				cell = strings.TrimSpace(record[index[pos]])
			}
			if cell == "" {
				row[name] = Null()
			} else {
				row[name] = String(cell)
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

// WriteCSV persists the table, rendering typed cells back to text.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, name := range t.Columns {
			record[i] = row[name].AsString()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CoercionStats counts, per column, the cells that failed to parse during
// Coerce. Failed cells become Null; downstream analytics drop the affected
// rows, so these counts are the only visible trace of bad input.
type CoercionStats struct {
	DatesDropped   map[string]int `json:"dates_dropped"`
	AmountsDropped map[string]int `json:"amounts_dropped"`
}

// TotalDropped reports the combined failure count across all columns.
func (s CoercionStats) TotalDropped() int {
	total := 0
	for _, n := range s.DatesDropped {
		total += n
	}
	for _, n := range s.AmountsDropped {
		total += n
	}
	return total
}

// Coerce types date-like and amount-like columns in place, by column-name
// convention: names containing "data" or "date" become dates, names
// containing "valor", "amount" or "preco" become decimals. Cells that fail
// to parse become Null and are counted in the returned stats.
func (t *Table) Coerce() CoercionStats {
	stats := CoercionStats{
		DatesDropped:   map[string]int{},
		AmountsDropped: map[string]int{},
	}
	for _, name := range t.Columns {
		normalized := Normalize(name)
		isDate := strings.Contains(normalized, "data") || strings.Contains(normalized, "date")
		isAmount := strings.Contains(normalized, "valor") ||
			strings.Contains(normalized, "amount") ||
			strings.Contains(normalized, "preco")
		if !isDate && !isAmount {
			continue
		}
		for _, row := range t.Rows {
			value := row[name]
			if value.Kind != KindString {
				continue
			}
			if isDate {
				parsed, err := ParseDate(value.Str)
				if err != nil {
					row[name] = Null()
					stats.DatesDropped[name]++
					continue
				}
				row[name] = DateVal(parsed)
			} else {
				parsed, err := ParseAmount(value.Str)
				if err != nil {
					row[name] = Null()
					stats.AmountsDropped[name]++
					continue
				}
				row[name] = Number(parsed)
			}
		}
	}
	return stats
}
