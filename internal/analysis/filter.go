package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

// Operator is a normalized filter operator.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpLt         Operator = "lt"
	OpGe         Operator = "ge"
	OpLe         Operator = "le"
	OpBetween    Operator = "between"
	OpIn         Operator = "in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

var operatorAliases = map[string]Operator{
	"==": OpEq, "!=": OpNe, ">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe,
}

var knownOperators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpLt: {}, OpGe: {}, OpLe: {},
	OpBetween: {}, OpIn: {}, OpContains: {}, OpStartsWith: {}, OpEndsWith: {},
}

// ParseOperator lower-cases s and resolves symbolic aliases. The second result
// reports whether the operator is one of the known names.
func ParseOperator(s string) (Operator, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if op, ok := operatorAliases[s]; ok {
		return op, true
	}
	op := Operator(s)
	_, ok := knownOperators[op]
	return op, ok
}

func (o Operator) isText() bool {
	return o == OpContains || o == OpStartsWith || o == OpEndsWith
}

// Clause is one filter condition. Value is a scalar, a {min,max} map for
// between, or a list (or comma-separated string) for in.
type Clause struct {
	Column   string `json:"column" yaml:"column"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Operator, c.Value)
}

var errInvalidFilterValue = errors.New("invalid filter value")

type predicate func(v any) bool

// ApplyFilters returns a new table with the rows that satisfy every clause.
// Clauses that are incomplete, name unknown columns or carry values that do
// not fit the column type are skipped with a warning.
func ApplyFilters(t *dataset.Table, types Types, clauses []Clause) *dataset.Table {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	for _, c := range clauses {
		col, keep, err := compileClause(t, types, c)
		if err != nil {
			slog.Warn("skipping filter clause", "column", c.Column, "operator", c.Operator, "reason", err.Error())
			continue
		}
		kept := rows[:0:0]
		for _, i := range rows {
			if keep(col.Values[i]) {
				kept = append(kept, i)
			}
		}
		rows = kept
	}
	return t.Select(rows)
}

func compileClause(t *dataset.Table, types Types, c Clause) (*dataset.Column, predicate, error) {
	if strings.TrimSpace(c.Column) == "" || strings.TrimSpace(c.Operator) == "" {
		return nil, nil, fmt.Errorf("%w: column and operator are required", errInvalidFilterValue)
	}
	col, ok := t.Column(c.Column)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, c.Column)
	}
	op, _ := ParseOperator(c.Operator)

	var (
		keep predicate
		err  error
	)
	switch types.Of(c.Column) {
	case Numeric:
		if op.isText() {
			keep, err = textPredicate(op, c.Value)
		} else {
			keep, err = numericPredicate(op, c.Value)
		}
	case Date:
		if op.isText() {
			keep, err = textPredicate(op, c.Value)
		} else {
			keep, err = datePredicate(op, c.Value)
		}
	default:
		keep, err = textPredicate(op, c.Value)
	}
	if err != nil {
		return nil, nil, err
	}
	return col, keep, nil
}

func numericPredicate(op Operator, value any) (predicate, error) {
	num := func(v any) (float64, error) {
		f, ok := dataset.ToFloat(v)
		if !ok {
			return 0, fmt.Errorf("%w: %v is not numeric", errInvalidFilterValue, v)
		}
		return f, nil
	}
	switch op {
	case OpBetween:
		lo, hi, err := bounds(value)
		if err != nil {
			return nil, err
		}
		min, err := num(lo)
		if err != nil {
			return nil, err
		}
		max, err := num(hi)
		if err != nil {
			return nil, err
		}
		return func(v any) bool {
			f, ok := dataset.ToFloat(v)
			return ok && f >= min && f <= max
		}, nil
	case OpIn:
		set := map[float64]struct{}{}
		for _, item := range listValue(value) {
			f, err := num(item)
			if err != nil {
				return nil, err
			}
			set[f] = struct{}{}
		}
		return func(v any) bool {
			f, ok := dataset.ToFloat(v)
			if !ok {
				return false
			}
			_, hit := set[f]
			return hit
		}, nil
	}
	ref, err := num(value)
	if err != nil {
		return nil, err
	}
	return func(v any) bool {
		f, ok := dataset.ToFloat(v)
		if !ok {
			return op == OpNe
		}
		switch op {
		case OpNe:
			return f != ref
		case OpGt:
			return f > ref
		case OpLt:
			return f < ref
		case OpGe:
			return f >= ref
		case OpLe:
			return f <= ref
		default:
			return f == ref
		}
	}, nil
}

func datePredicate(op Operator, value any) (predicate, error) {
	date := func(v any) (time.Time, error) {
		d, ok := parseDate(v)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %v is not a date", errInvalidFilterValue, v)
		}
		return d, nil
	}
	switch op {
	case OpBetween:
		lo, hi, err := bounds(value)
		if err != nil {
			return nil, err
		}
		from, err := date(lo)
		if err != nil {
			return nil, err
		}
		to, err := date(hi)
		if err != nil {
			return nil, err
		}
		return func(v any) bool {
			d, ok := parseDate(v)
			return ok && !d.Before(from) && !d.After(to)
		}, nil
	case OpIn:
		var set []time.Time
		for _, item := range listValue(value) {
			d, err := date(item)
			if err != nil {
				return nil, err
			}
			set = append(set, d)
		}
		return func(v any) bool {
			d, ok := parseDate(v)
			if !ok {
				return false
			}
			for _, s := range set {
				if d.Equal(s) {
					return true
				}
			}
			return false
		}, nil
	}
	ref, err := date(value)
	if err != nil {
		return nil, err
	}
	return func(v any) bool {
		d, ok := parseDate(v)
		if !ok {
			return op == OpNe
		}
		switch op {
		case OpNe:
			return !d.Equal(ref)
		case OpGt:
			return d.After(ref)
		case OpLt:
			return d.Before(ref)
		case OpGe:
			return !d.Before(ref)
		case OpLe:
			return !d.After(ref)
		default:
			return d.Equal(ref)
		}
	}, nil
}

func textPredicate(op Operator, value any) (predicate, error) {
	switch op {
	case OpContains, OpStartsWith, OpEndsWith:
		needle := strings.ToLower(dataset.String(value))
		return func(v any) bool {
			if dataset.IsMissing(v) {
				return false
			}
			s := strings.ToLower(dataset.String(v))
			switch op {
			case OpContains:
				return strings.Contains(s, needle)
			case OpStartsWith:
				return strings.HasPrefix(s, needle)
			default:
				return strings.HasSuffix(s, needle)
			}
		}, nil
	case OpIn:
		set := map[string]struct{}{}
		for _, item := range listValue(value) {
			set[strings.TrimSpace(dataset.String(item))] = struct{}{}
		}
		return func(v any) bool {
			if dataset.IsMissing(v) {
				return false
			}
			_, hit := set[dataset.String(v)]
			return hit
		}, nil
	case OpNe:
		ref := dataset.String(value)
		return func(v any) bool {
			return dataset.IsMissing(v) || dataset.String(v) != ref
		}, nil
	}
	ref := dataset.String(value)
	return func(v any) bool {
		return !dataset.IsMissing(v) && dataset.String(v) == ref
	}, nil
}

// bounds extracts min and max from a {min,max} map or a two-element list.
func bounds(value any) (any, any, error) {
	switch x := value.(type) {
	case map[string]any:
		lo, okLo := x["min"]
		hi, okHi := x["max"]
		if okLo && okHi {
			return lo, hi, nil
		}
	case map[any]any:
		return bounds(cast.ToStringMap(x))
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = v
		}
		return bounds(m)
	default:
		if items := listValue(value); len(items) == 2 {
			return items[0], items[1], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: between needs {min,max}, got %v", errInvalidFilterValue, value)
}

// listValue accepts a slice or a comma-separated string.
func listValue(value any) []any {
	switch x := value.(type) {
	case nil:
		return nil
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = v
		}
		return out
	case []float64:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = v
		}
		return out
	case string:
		parts := strings.Split(x, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	}
	return []any{value}
}
