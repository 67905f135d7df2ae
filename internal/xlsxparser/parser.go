// =============================================================================
// Census Bulk Importer - XLSX Parser
// =============================================================================
//
// This module decodes spreadsheet workbooks into rows for the import
// pipeline. It reads one sheet and treats its first non-blank row as the
// header row:
//
//   | COMUNIDAD | TORRE | CASA O APTO | APELLIDOS Y NOMBRES | CEDULA   | ...
//   |-----------|-------|-------------|---------------------|----------|
//   | Las Rosas | 1     | 101         | Pérez Ana           | 12345678 |
//   | Las Rosas | 1     | 102         | Rojas Eva           |          |
//
// Every data row becomes a types.Row holding only its non-empty cells, in
// column order. Blank rows are skipped.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls which part of the workbook is read.
type Options struct {
	// Sheet is the name of the sheet to read.
	// Default: "" (the first sheet in the workbook)
	Sheet string
}

// Result is the decoded content of one sheet.
type Result struct {
	// Sheet is the name of the sheet that was read.
	Sheet string

	// Headers are the cleaned column headers (see types.CleanHeaders).
	Headers []string

	// Rows are the data rows in sheet order.
	Rows []types.Row
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a workbook from disk.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//   - opts: The sheet selection.
//
// RETURNS:
//   - The decoded sheet. Rows is empty (not nil) for a sheet without data.
//   - An error if the file cannot be opened or the sheet does not exist.
func Parse(path string, opts Options) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, opts)
}

// ParseReader reads a workbook from r, e.g. an uploaded file body.
func ParseReader(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()

	return parseFile(f, opts)
}

func parseFile(f *excelize.File, opts Options) (*Result, error) {
	sheet, err := resolveSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}

	headers, rows := types.RowsFromGrid(grid)
	return &Result{Sheet: sheet, Headers: headers, Rows: rows}, nil
}

// resolveSheet returns the sheet to read, defaulting to the first one.
func resolveSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %v)", name, sheets)
}
