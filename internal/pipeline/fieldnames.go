package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// keySeparator replaces spaces in internal keys.
const keySeparator = "-"

// Normalize converts a column header into its internal key form:
// lower-cased, with spaces replaced by "-". "APELLIDOS Y NOMBRES" becomes
// "apellidos-y-nombres". Normalize is idempotent on keys.
func Normalize(name string) string {
	return types.FieldKey(name)
}

// Denormalize turns an internal key back into a label when the original
// header is unknown: separators become spaces and each word is title-cased.
// Use FieldNames.Display to recover the exact original header.
func Denormalize(key string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(key, keySeparator, " "))
}

// FieldNames remembers the original header behind every internal key seen
// during one load, so keys map back to the exact original casing.
type FieldNames struct {
	display map[string]string
}

// NewFieldNames returns an empty registry.
func NewFieldNames() *FieldNames {
	return &FieldNames{display: make(map[string]string)}
}

// Register records name and returns its key. Registering the same name twice
// is a no-op; a different name with the same key fails with ErrFieldCollision.
func (n *FieldNames) Register(name string) (string, error) {
	key := Normalize(name)
	if existing, ok := n.display[key]; ok {
		if existing != name {
			return "", fmt.Errorf("%w: %q and %q both map to %q", ErrFieldCollision, existing, name, key)
		}
		return key, nil
	}
	n.display[key] = name
	return key, nil
}

// Known reports whether key has a registered header.
func (n *FieldNames) Known(key string) bool {
	_, ok := n.display[key]
	return ok
}

// Display returns the original header for key, falling back to Denormalize
// for keys that were never registered.
func (n *FieldNames) Display(key string) string {
	if name, ok := n.display[key]; ok {
		return name
	}
	return Denormalize(key)
}

// Len returns the number of registered headers.
func (n *FieldNames) Len() int {
	return len(n.display)
}
