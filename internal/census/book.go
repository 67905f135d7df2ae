// =============================================================================
// Census Bulk Importer - Census Workbook
// =============================================================================
//
// This module appends imported records to the master census workbook.
//
// COLUMN MATCHING:
//   Import keys and census headers are compared by a loose key: lower-cased,
//   with everything outside a-z and 0-9 removed. "CASA O APTO", "casa_o_apto"
//   and "Casa o Apto." all land in the same column. Keys without a matching
//   column are ignored and reported back.
//
// APPEND:
//   Records are written after the last populated row of the census sheet, one
//   row per record, in the order received. The workbook is saved in place.
//
// =============================================================================

package census

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// ErrNoHeader is returned when the census sheet has no header row.
var ErrNoHeader = errors.New("census sheet has no header row")

// AppendResult summarises one Append call.
type AppendResult struct {
	// Imported is the number of rows written.
	Imported int `json:"imported"`

	// IgnoredColumns are import keys with no census column, sorted.
	IgnoredColumns []string `json:"ignored_columns"`
}

// Book is the census workbook on disk.
type Book struct {
	Path   string
	Sheet  string
	Logger *log.Logger

	mu sync.Mutex
}

// NewBook returns a Book for the sheet inside path.
func NewBook(path, sheet string, logger *log.Logger) *Book {
	if logger == nil {
		logger = log.Default()
	}
	return &Book{Path: path, Sheet: sheet, Logger: logger}
}

// Append writes records to the end of the census sheet and saves the file.
//
// PARAMETERS:
//   - records: One row per person, keyed by import column name.
//
// RETURNS:
//   - The number of rows written and the ignored import columns.
//   - An error if the workbook cannot be opened, read or saved. Nothing is
//     written to disk in that case.
func (b *Book) Append(records []types.Row) (*AppendResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := excelize.OpenFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open census workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(b.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read census sheet %q: %w", b.Sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i + 1
		}
		b.Logger.Debug("Census column", "header", h, "key", key, "index", i+1)
	}

	ignored := make(map[string]bool)
	next := len(rows) + 1
	for _, rec := range records {
		for _, field := range rec.Fields() {
			col, ok := columns[NormalizeHeader(field.Name)]
			if !ok {
				ignored[field.Name] = true
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col, next)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", next, err)
			}
			if err := f.SetCellValue(b.Sheet, cell, field.Value); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
		next++
	}

	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save census workbook: %w", err)
	}

	result := &AppendResult{Imported: len(records), IgnoredColumns: make([]string, 0, len(ignored))}
	for name := range ignored {
		result.IgnoredColumns = append(result.IgnoredColumns, name)
	}
	sort.Strings(result.IgnoredColumns)

	for _, name := range result.IgnoredColumns {
		b.Logger.Warn("Import column not in census, ignored", "column", name, "key", NormalizeHeader(name))
	}
	b.Logger.Info("Appended records to census", "file", b.Path, "records", result.Imported)
	return result, nil
}

// NormalizeHeader lower-cases h and drops everything but ASCII letters and digits.
func NormalizeHeader(h string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
