// Package dataset holds the in-memory table representation and the loaders
// that build it from CSV, XLSX and JSON sources.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Record is one row keyed by column name. A nil value is a missing cell.
type Record map[string]any

// Column is a named, ordered sequence of raw cell values.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []*Column
}

// NewTable builds an empty table with the given column names.
func NewTable(names ...string) *Table {
	t := &Table{Columns: make([]*Column, 0, len(names))}
	for _, n := range names {
		t.Columns = append(t.Columns, &Column{Name: n})
	}
	return t
}

// FromRecords builds a table from records. Column order follows names when
// given; otherwise it is the order keys are first seen (sorted within a record).
func FromRecords(records []Record, names ...string) *Table {
	if len(names) == 0 {
		names = keyOrder(records)
	}
	t := NewTable(names...)
	for _, r := range records {
		for _, c := range t.Columns {
			c.Values = append(c.Values, r[c.Name])
		}
	}
	return t
}

// AppendRow appends one row; missing trailing cells become nil and extras are dropped.
func (t *Table) AppendRow(cells []any) {
	for i, c := range t.Columns {
		var v any
		if i < len(cells) {
			v = cells[i]
		}
		c.Values = append(c.Values, v)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Row returns the i-th row as a Record.
func (t *Table) Row(i int) Record {
	r := make(Record, len(t.Columns))
	for _, c := range t.Columns {
		r[c.Name] = c.Values[i]
	}
	return r
}

// Records copies every row out of the table.
func (t *Table) Records() []Record {
	out := make([]Record, t.Len())
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Select returns a new table holding only the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for j, c := range t.Columns {
		vals := make([]any, len(rows))
		for k, i := range rows {
			vals[k] = c.Values[i]
		}
		out.Columns[j] = &Column{Name: c.Name, Values: vals}
	}
	return out
}

// Clone deep-copies the column slices; cell values are shared.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for j, c := range t.Columns {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		out.Columns[j] = &Column{Name: c.Name, Values: vals}
	}
	return out
}

// Head returns up to n rows as records, for previews.
func (t *Table) Head(n int) []Record {
	if n > t.Len() {
		n = t.Len()
	}
	out := make([]Record, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// IsMissing reports whether a raw cell counts as missing.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return isMissingToken(x)
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// String renders a cell as text; missing cells render as "".
func String(v any) string {
	if IsMissing(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func keyOrder(records []Record) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := seen[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
			names = append(names, k)
		}
	}
	return names
}
