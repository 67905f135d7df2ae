// =============================================================================
// Census Bulk Importer - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / csvparser (producing rows)
//   - pipeline (grouping and exporting rows)
//   - transport (submitting rows)
//   - validation (inspecting rows)
//
// =============================================================================

package types

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// =============================================================================
// ROW TYPES
// =============================================================================

// Field is a single named cell value of a Row.
type Field struct {
	// Name is the column header exactly as it appears in the source file.
	Name string

	// Value is the cell content. All values are treated as opaque strings.
	Value string
}

// Row is an ordered mapping from field name to value.
// One Row is produced per spreadsheet data row. Field order follows the
// column order of the source file and is preserved through export.
//
// The zero Row is empty and ready to use. Copies of a Row share storage.
type Row struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewRow builds a Row from fields in order. A later field with the same name
// overwrites the earlier value but keeps the earlier position.
func NewRow(fields ...Field) Row {
	var r Row
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Set assigns value to name, appending the field if it is new.
func (r *Row) Set(name, value string) {
	if r.m == nil {
		r.m = orderedmap.New[string, string]()
	}
	r.m.Set(name, value)
}

// Get returns the value for name and whether the field is present.
func (r Row) Get(name string) (string, bool) {
	if r.m == nil {
		return "", false
	}
	return r.m.Get(name)
}

// Has reports whether the field is present.
func (r Row) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of fields.
func (r Row) Len() int {
	if r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Names returns the field names in order.
func (r Row) Names() []string {
	names := make([]string, 0, r.Len())
	for _, f := range r.Fields() {
		names = append(names, f.Name)
	}
	return names
}

// Fields returns a copy of the fields in order.
func (r Row) Fields() []Field {
	out := make([]Field, 0, r.Len())
	if r.m == nil {
		return out
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Name: pair.Key, Value: pair.Value})
	}
	return out
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, r.Len())
	for _, f := range r.Fields() {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the row as a JSON object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.m == nil {
		return []byte("{}"), nil
	}
	return r.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object of string values, keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, string]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	r.m = m
	return nil
}
