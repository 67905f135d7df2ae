// =============================================================================
// Census Bulk Importer - CSV Parser Module
// =============================================================================
//
// This module decodes CSV exports of the census spreadsheet. It produces the
// same rows the XLSX parser produces for the same cells, so a sheet saved as
// CSV imports identically.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - UTF-8 byte order mark stripped from the first header
//   - Ragged rows tolerated (missing trailing cells read as absent fields)
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/census-bulk-importer/internal/config"
	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// utf8BOM is written by spreadsheet programs at the start of "CSV UTF-8" files.
const utf8BOM = '\uFEFF'

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the cleaned column headers.
	Headers []string

	// Rows contains the data rows in file order.
	Rows []types.Row

	// SourceFile is the path to the source CSV file, if read from disk.
	SourceFile string
}

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV parsing settings from the configuration.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses CSV content from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	reader := bufio.NewReader(r)
	if first, _, err := reader.ReadRune(); err == nil && first != utf8BOM {
		if err := reader.UnreadRune(); err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	grid, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headers, rows := types.RowsFromGrid(grid)
	return &CSVData{Headers: headers, Rows: rows}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = []rune(settings.Delimiter)[0]
		} else {
			reader.Comma = ','
		}
	}

	// Allow a variable number of fields per row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}
