// =============================================================================
// Census Bulk Importer - Validation Engine
// =============================================================================
//
// This module checks a decoded file against the columns the grouping pipeline
// relies on. Nothing here blocks an import: records without grouping values
// fall into the "Sin ..." buckets and records without a name show the
// placeholder label. The findings exist so the user can fix the spreadsheet
// before submitting.
//
// CHECKS:
//   1. Header-level: each required column is present.
//      When it is not, a header that matches it loosely ("Comunidad",
//      "casa o apto ") is named as the likely culprit.
//   2. Row-level: each row carries a value for the identity column.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ginjaninja78/census-bulk-importer/internal/pipeline"
	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Rule names.
const (
	RuleMissingColumn   = "missing_column"
	RuleMissingIdentity = "missing_identity"
)

// ValidationError represents a single finding.
type ValidationError struct {
	// Severity is SeverityWarning or SeverityInfo.
	Severity string

	// Field is the column the finding is about.
	Field string

	// Rule is the check that produced the finding.
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the 1-based data row, or 0 for header findings.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] Column '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s", strings.ToUpper(e.Severity), e.RowNumber, e.Field, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	Errors []*ValidationError

	// RowsValidated is the number of data rows inspected.
	RowsValidated int

	// MissingColumns lists required columns absent from the header.
	MissingColumns []string
}

// WarningCount returns the number of warnings.
func (r *ValidationResult) WarningCount() int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Clean reports whether there were no findings at all.
func (r *ValidationResult) Clean() bool {
	return len(r.Errors) == 0
}

// =============================================================================
// VALIDATOR
// =============================================================================

// RequiredColumns are the columns the hierarchy and labels are built from.
var RequiredColumns = []string{
	pipeline.CommunityField,
	pipeline.TowerField,
	pipeline.UnitField,
	pipeline.LabelField,
}

// Validator checks headers and rows.
type Validator struct {
	required []string
	identity string

	// MaxRowFindings caps row-level findings; 0 means no cap.
	MaxRowFindings int
}

// NewValidator creates a Validator for the default census columns.
func NewValidator() *Validator {
	return &Validator{
		required:       RequiredColumns,
		identity:       pipeline.LabelField,
		MaxRowFindings: 50,
	}
}

// Validate runs every check with the default validator.
func Validate(headers []string, rows []types.Row) *ValidationResult {
	return NewValidator().Validate(headers, rows)
}

// Validate runs every check.
//
// PARAMETERS:
//   - headers: The cleaned header cells in column order.
//   - rows: The decoded data rows.
//
// RETURNS:
//   - The findings, header-level first, then rows in file order.
func (v *Validator) Validate(headers []string, rows []types.Row) *ValidationResult {
	result := &ValidationResult{RowsValidated: len(rows)}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	identityPresent := true
	for _, col := range v.required {
		if present[col] {
			continue
		}
		if col == v.identity {
			identityPresent = false
		}
		result.MissingColumns = append(result.MissingColumns, col)
		result.Errors = append(result.Errors, v.missingColumn(col, headers))
	}

	// Without the column every row would be flagged; the header finding says it once.
	if !identityPresent {
		return result
	}

	reported := 0
	for i, row := range rows {
		if value, ok := row.Get(v.identity); ok && strings.TrimSpace(value) != "" {
			continue
		}
		if v.MaxRowFindings > 0 && reported == v.MaxRowFindings {
			result.Errors = append(result.Errors, &ValidationError{
				Severity: SeverityInfo,
				Field:    v.identity,
				Rule:     RuleMissingIdentity,
				Message:  "further rows without a name were not listed",
			})
			break
		}
		reported++
		result.Errors = append(result.Errors, &ValidationError{
			Severity:  SeverityWarning,
			Field:     v.identity,
			Rule:      RuleMissingIdentity,
			Message:   fmt.Sprintf("no value; the record will be shown as %q", pipeline.NoLabel),
			RowNumber: i + 1,
		})
	}

	return result
}

// missingColumn builds the header finding for col.
func (v *Validator) missingColumn(col string, headers []string) *ValidationError {
	msg := "column not found in header row"
	if col != v.identity {
		msg += "; records will be grouped under the default bucket"
	}
	for _, h := range headers {
		if looseKey(h) == looseKey(col) {
			msg += fmt.Sprintf(" (found %q, names must match exactly)", h)
			break
		}
	}
	return &ValidationError{
		Severity: SeverityWarning,
		Field:    col,
		Rule:     RuleMissingColumn,
		Message:  msg,
	}
}

// looseKey lower-cases s and keeps only letters and digits.
func looseKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
