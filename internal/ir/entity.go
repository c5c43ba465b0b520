package ir

import (
	"fmt"
	"strings"
)

// reservedColumns are SQLite row-id aliases; a field with one of these names
// would shadow the insertion-order tiebreaker.
var reservedColumns = map[string]bool{"rowid": true, "oid": true, "_rowid_": true}

// EntitySchema describes a record type known to the store.
type EntitySchema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field is a single typed attribute of an entity.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Field returns the named field and whether it exists.
func (s EntitySchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (s EntitySchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks identifiers, kinds and field uniqueness.
func (s EntitySchema) Validate() error {
	if !ValidIdentifier(s.Name) {
		return fmt.Errorf("invalid entity name %q", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("entity %s: at least one field is required", s.Name)
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if !ValidIdentifier(f.Name) {
			return fmt.Errorf("entity %s: invalid field name %q", s.Name, f.Name)
		}
		if reservedColumns[strings.ToLower(f.Name)] {
			return fmt.Errorf("entity %s: field name %q is reserved", s.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("entity %s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if _, err := ParseFieldKind(string(f.Kind)); err != nil {
			return fmt.Errorf("entity %s field %s: %w", s.Name, f.Name, err)
		}
	}
	return nil
}

// ValidIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
