// Package analysis infers column types on loaded tables, filters rows with
// typed clauses, aggregates columns for charts and summarizes columns.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType int

const (
	Categorical ColumnType = iota
	Numeric
	Date
)

func (c ColumnType) String() string {
	switch c {
	case Numeric:
		return "numeric"
	case Date:
		return "date"
	default:
		return "categorical"
	}
}

// MarshalText renders the type name; used by JSON and YAML encoders.
func (c ColumnType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses a type name.
func (c *ColumnType) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "numeric":
		*c = Numeric
	case "date":
		*c = Date
	case "categorical":
		*c = Categorical
	default:
		return fmt.Errorf("unknown column type %q", string(b))
	}
	return nil
}

// Types maps column name to its inferred type.
type Types map[string]ColumnType

// Of returns the type of a column; unknown columns are categorical.
func (ts Types) Of(name string) ColumnType {
	if t, ok := ts[name]; ok {
		return t
	}
	return Categorical
}

// Schema is the result of a full inference pass.
type Schema struct {
	Types Types `json:"types"`
	// DateFormats holds the canonical pattern per date column, e.g. "DD/MM/YYYY".
	DateFormats map[string]string `json:"date_formats,omitempty"`
}

var (
	ErrColumnNotFound      = errors.New("column not found")
	ErrNonNumericAggregate = errors.New("non-numeric values cannot be aggregated")
	ErrNoData              = errors.New("no data loaded")
)
