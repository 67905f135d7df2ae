// =============================================================================
// Census Bulk Importer - Ingest Module
// =============================================================================
//
// This module turns an input file into ordered rows. It picks the decoder by
// file extension so the command layer never needs to know which format the
// user exported.
//
// SUPPORTED FORMATS:
//   .xlsx .xlsm .xltx .xltm  -> xlsxparser (excelize)
//   .csv                     -> csvparser
//
// =============================================================================

package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/census-bulk-importer/internal/config"
	"github.com/ginjaninja78/census-bulk-importer/internal/csvparser"
	"github.com/ginjaninja78/census-bulk-importer/internal/types"
	"github.com/ginjaninja78/census-bulk-importer/internal/xlsxparser"
)

// ErrUnsupportedFormat is returned for extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Result is a decoded input file.
type Result struct {
	// Path is the file that was read.
	Path string

	// Sheet is the worksheet the rows came from. Empty for CSV input.
	Sheet string

	// Headers are the cleaned header cells in column order.
	Headers []string

	// Rows are the non-blank data rows in file order.
	Rows []types.Row
}

// ReadFile decodes path according to its extension.
//
// PARAMETERS:
//   - path: The input file.
//   - cfg: Supplies the sheet name and CSV delimiter. May be nil.
//
// RETURNS:
//   - The decoded rows. Rows is never nil on success.
//   - ErrUnsupportedFormat (wrapped) for unknown extensions, or the
//     decoder's error.
func ReadFile(path string, cfg *config.MainConfig) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		res, err := xlsxparser.Parse(path, xlsxparser.Options{Sheet: cfg.Sheet})
		if err != nil {
			return nil, err
		}
		return &Result{Path: path, Sheet: res.Sheet, Headers: res.Headers, Rows: res.Rows}, nil

	case ".csv":
		data, err := csvparser.Parse(path, cfg.CSVSettings)
		if err != nil {
			return nil, err
		}
		return &Result{Path: path, Headers: data.Headers, Rows: data.Rows}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
