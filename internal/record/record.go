package record

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// Envelope fields: record-level bookkeeping that lives beside the core-file
// entries at the top of the document.
const (
	FieldID            = "_id"
	FieldName          = "name"
	FieldLocation      = "location"
	FieldCreated       = "created"
	FieldLastModified  = "last_modified"
	FieldSchemaVersion = "schema_version"
)

// BookkeepingFields are stamped by the document store on write and carry no
// payload meaning. Diffs and comparisons drop them.
var BookkeepingFields = []string{FieldID, FieldCreated, FieldLastModified}

// DeepCopy returns a deep copy of a JSON-compatible document. The input is
// never aliased by the result.
func DeepCopy(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	return runtime.DeepCopyJSON(doc)
}

// Empty reports whether a core-file entry counts as absent: nil, or a
// document with no fields. Non-document entries are not empty; they are
// malformed and rejected during processing.
func Empty(entry any) bool {
	if entry == nil {
		return true
	}
	if m, ok := entry.(map[string]any); ok {
		return len(m) == 0
	}
	return false
}

// AsDocument asserts that a core-file entry is a JSON document.
func AsDocument(entry any) (map[string]any, bool) {
	doc, ok := entry.(map[string]any)
	return doc, ok
}

// Name returns the record's envelope name, or "" when absent.
func Name(rec map[string]any) string {
	s, _ := String(rec, FieldName)
	return s
}

// Location returns the record's envelope location, or "" when absent.
func Location(rec map[string]any) string {
	s, _ := String(rec, FieldLocation)
	return s
}

// ID returns the record's document-store identifier, or "" when absent.
func ID(rec map[string]any) string {
	s, _ := String(rec, FieldID)
	return s
}

// SchemaVersion returns the declared schema version of a document, or ""
// when the field is absent or not a string. Callers apply their own default.
func SchemaVersion(doc map[string]any) string {
	s, _ := String(doc, FieldSchemaVersion)
	return s
}

// String reads a nested string field. Missing fields and type mismatches
// both report false; legacy records routinely hold junk where strings are
// expected and callers treat that the same as absence.
func String(doc map[string]any, fields ...string) (string, bool) {
	v, ok, err := unstructured.NestedString(doc, fields...)
	if err != nil || !ok {
		return "", false
	}
	return v, true
}

// Map reads a nested document field. The returned map aliases the input.
func Map(doc map[string]any, fields ...string) (map[string]any, bool) {
	v, ok, err := unstructured.NestedMap(doc, fields...)
	if err != nil || !ok {
		return nil, false
	}
	return v, true
}

// MapRef reads a nested document field without copying, so mutations are
// visible in the enclosing document.
func MapRef(doc map[string]any, fields ...string) (map[string]any, bool) {
	v, ok, err := unstructured.NestedFieldNoCopy(doc, fields...)
	if err != nil || !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice reads a nested list field without copying.
func Slice(doc map[string]any, fields ...string) ([]any, bool) {
	v, ok, err := unstructured.NestedFieldNoCopy(doc, fields...)
	if err != nil || !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// StringSlice reads a nested list of strings, skipping entries that are not
// strings.
func StringSlice(doc map[string]any, fields ...string) ([]string, bool) {
	raw, ok := Slice(doc, fields...)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Documents filters a list field down to its document entries.
func Documents(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
