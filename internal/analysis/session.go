package analysis

import (
	"errors"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

// LoadSummary describes a freshly loaded table.
type LoadSummary struct {
	Columns      []string          `json:"columns"`
	Types        Types             `json:"column_types"`
	DateFormats  map[string]string `json:"date_formats,omitempty"`
	TotalRows    int               `json:"total_rows"`
	TotalColumns int               `json:"total_columns"`
}

// Session holds one loaded table and its schema. It is not safe for
// concurrent use.
type Session struct {
	table  *dataset.Table
	schema Schema
}

func NewSession() *Session { return &Session{} }

// Load infers types on t and replaces any previous state.
func (s *Session) Load(t *dataset.Table) (*LoadSummary, error) {
	if t == nil {
		return nil, errors.New("load: nil table")
	}
	schema := Infer(t)
	s.table, s.schema = t, schema
	return &LoadSummary{
		Columns:      t.Names(),
		Types:        schema.Types,
		DateFormats:  schema.DateFormats,
		TotalRows:    t.Len(),
		TotalColumns: len(t.Columns),
	}, nil
}

// LoadFile reads path and loads it. On failure the previous state is kept.
func (s *Session) LoadFile(path string, opt dataset.Options) (*LoadSummary, error) {
	t, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	return s.Load(t)
}

func (s *Session) Table() (*dataset.Table, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return s.table, nil
}

func (s *Session) Types() (Types, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return s.schema.Types, nil
}

func (s *Session) Schema() (Schema, error) {
	if s.table == nil {
		return Schema{}, ErrNoData
	}
	return s.schema, nil
}

func (s *Session) ApplyFilters(clauses []Clause) (*dataset.Table, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return ApplyFilters(s.table, s.schema.Types, clauses), nil
}

func (s *Session) Visualize(req VisualizeRequest) (*Chart, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return Visualize(s.table, s.schema.Types, req)
}

func (s *Session) ColumnStats(column string) (*ColumnStats, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return ComputeColumnStats(s.table, s.schema.Types, column)
}

// Describe summarizes every column of the loaded table.
func (s *Session) Describe(name string) (*Report, error) {
	if s.table == nil {
		return nil, ErrNoData
	}
	return Describe(s.table, s.schema.Types, name)
}
