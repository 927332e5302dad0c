// Package rowcodec implements column schema validation and the
// self-describing tagged row encoding.
package rowcodec

import (
	"strings"

	"github.com/invdb/invdb/internal/invderr"
)

// ColType is a column's logical value type.
type ColType byte

const (
	ColU32 ColType = 1
	ColU64 ColType = 2
	ColI64 ColType = 3
	ColBool ColType = 4
	ColBytes ColType = 5
	ColString ColType = 6
)

// Column describes one schema column.
type Column struct {
	Name     string
	Type     ColType
	Nullable bool
}

// Schema is an ordered, validated list of columns.
type Schema struct {
	Columns []Column
}

// NewSchema validates and constructs a Schema: at least one column, each
// name nonempty, <=64 chars, restricted to [A-Za-z0-9_], and unique.
func NewSchema(columns []Column) (Schema, error) {
	if len(columns) == 0 {
		return Schema{}, invderr.InvalidArg("columns", "schema must have at least one column")
	}

	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if err := validateColumnName(col.Name); err != nil {
			return Schema{}, err
		}
		if _, dup := seen[col.Name]; dup {
			return Schema{}, invderr.InvalidArg("column.name", "duplicate column name %q", col.Name)
		}
		seen[col.Name] = struct{}{}
	}

	return Schema{Columns: columns}, nil
}

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s.Columns)
}

func validateColumnName(name string) error {
	if name == "" || len(name) > 64 {
		return invderr.InvalidArg("column.name", "name must be 1..=64 chars, got %q", name)
	}
	if !isValidIdentifier(name) {
		return invderr.InvalidArg("column.name", "invalid characters in name %q", name)
	}
	return nil
}

func isValidIdentifier(name string) bool {
	for _, c := range name {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '_' {
			return false
		}
	}
	return true
}

// ValidateTableName applies the same 1..=64, [A-Za-z0-9_] rule to table
// names (shared by the catalog's table name validation).
func ValidateTableName(name string) error {
	if name == "" || len(name) > 64 {
		return invderr.InvalidArg("table.name", "name must be 1..=64 chars")
	}
	if !isValidIdentifier(name) {
		return invderr.InvalidArg("table.name", "invalid characters in name %q", name)
	}
	return nil
}

func colTypeName(t ColType) string {
	switch t {
	case ColU32:
		return "U32"
	case ColU64:
		return "U64"
	case ColI64:
		return "I64"
	case ColBool:
		return "Bool"
	case ColBytes:
		return "Bytes"
	case ColString:
		return "String"
	default:
		return "?"
	}
}

func (s Schema) String() string {
	var b strings.Builder
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(colTypeName(c.Type))
		if c.Nullable {
			b.WriteString(" nullable")
		}
	}
	return b.String()
}
