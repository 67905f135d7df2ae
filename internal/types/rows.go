package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// ROW BUILDING HELPERS
// =============================================================================
// Shared by the spreadsheet and CSV decoders so both produce identical rows
// from identical cell grids.

// FieldKey is the internal key of a column header: lower-cased, with spaces
// replaced by "-". Two headers with the same key cannot coexist in a row.
func FieldKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// CleanHeaders trims header cells and makes them unique.
//
// CLEANING OPERATIONS:
//   - Trim whitespace
//   - Empty headers become "Column_N" (1-based column index)
//   - A header whose FieldKey was already taken ("TORRE" after "Torre",
//     "FECHA-NAC" after "FECHA NAC") gets "_1", "_2", ... suffixes in order
//     of appearance
func CleanHeaders(raw []string) []string {
	cleaned := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		if seen[FieldKey(header)] {
			base := header
			for n := 1; seen[FieldKey(header)]; n++ {
				header = fmt.Sprintf("%s_%d", base, n)
			}
		}
		seen[FieldKey(header)] = true

		cleaned[i] = header
	}

	return cleaned
}

// RowFromCells builds a Row from one line of cells. Only non-empty cells are
// kept, so a blank cell reads as an absent field. Values are trimmed.
func RowFromCells(headers, cells []string) Row {
	var row Row
	for i, header := range headers {
		if i >= len(cells) {
			break
		}
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}
		row.Set(header, value)
	}
	return row
}

// IsBlank reports whether every cell is empty or whitespace.
func IsBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// RowsFromGrid turns a cell grid into rows. The first non-blank line is the
// header line; blank lines after it are skipped.
func RowsFromGrid(grid [][]string) (headers []string, rows []Row) {
	start := -1
	for i, line := range grid {
		if !IsBlank(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, []Row{}
	}

	headers = CleanHeaders(grid[start])
	rows = make([]Row, 0, len(grid)-start-1)
	for _, line := range grid[start+1:] {
		if IsBlank(line) {
			continue
		}
		rows = append(rows, RowFromCells(headers, line))
	}
	return headers, rows
}
