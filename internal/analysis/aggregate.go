package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

// Aggregator reduces the y values of one group.
type Aggregator string

const (
	AggAvg   Aggregator = "avg"
	AggSum   Aggregator = "sum"
	AggCount Aggregator = "count"
	AggMin   Aggregator = "min"
	AggMax   Aggregator = "max"
)

// ParseAggregator resolves a name; anything unrecognized means avg.
func ParseAggregator(s string) Aggregator {
	switch a := Aggregator(strings.ToLower(strings.TrimSpace(s))); a {
	case AggSum, AggCount, AggMin, AggMax:
		return a
	default:
		return AggAvg
	}
}

// VisualizeRequest selects the chart axes and optional grouping.
type VisualizeRequest struct {
	X          string   `json:"x" yaml:"x"`
	Y          string   `json:"y" yaml:"y"`
	Grouped    bool     `json:"grouped" yaml:"grouped"`
	Aggregator string   `json:"aggregator" yaml:"aggregator"`
	Filters    []Clause `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Chart holds parallel x/y series. Counts is the row count per group and is
// only set in grouped mode.
type Chart struct {
	X      []any `json:"x"`
	Y      []any `json:"y"`
	Counts []int `json:"counts,omitempty"`
}

// Visualize filters t, then returns either the raw x/y pairs sorted by x or
// one aggregated y per distinct x.
func Visualize(t *dataset.Table, types Types, req VisualizeRequest) (*Chart, error) {
	ft := ApplyFilters(t, types, req.Filters)
	xc, ok := ft.Column(req.X)
	if !ok {
		return nil, fmt.Errorf("x axis %q: %w", req.X, ErrColumnNotFound)
	}
	yc, ok := ft.Column(req.Y)
	if !ok {
		return nil, fmt.Errorf("y axis %q: %w", req.Y, ErrColumnNotFound)
	}
	xt := types.Of(req.X)
	if !req.Grouped {
		return ungrouped(xc, yc, xt), nil
	}
	return grouped(xc, yc, xt, ParseAggregator(req.Aggregator))
}

func ungrouped(xc, yc *dataset.Column, xt ColumnType) *Chart {
	idx := make([]int, len(xc.Values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return compareCells(xc.Values[idx[a]], xc.Values[idx[b]], xt) < 0
	})
	ch := &Chart{X: make([]any, len(idx)), Y: make([]any, len(idx))}
	for k, i := range idx {
		ch.X[k] = xc.Values[i]
		ch.Y[k] = yc.Values[i]
	}
	return ch
}

type group struct {
	key  any
	rows []int
}

func grouped(xc, yc *dataset.Column, xt ColumnType, agg Aggregator) (*Chart, error) {
	byKey := map[string]*group{}
	var groups []*group
	for i, x := range xc.Values {
		if dataset.IsMissing(x) {
			continue
		}
		k := groupKey(x, xt)
		g, ok := byKey[k]
		if !ok {
			g = &group{key: x}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return compareCells(groups[a].key, groups[b].key, xt) < 0
	})

	ch := &Chart{X: make([]any, len(groups)), Y: make([]any, len(groups)), Counts: make([]int, len(groups))}
	for k, g := range groups {
		y, err := reduce(yc, g.rows, agg)
		if err != nil {
			return nil, err
		}
		ch.X[k] = g.key
		ch.Y[k] = y
		ch.Counts[k] = len(g.rows)
	}
	return ch, nil
}

// groupKey makes equal values of the column type share a group: numbers by
// value, dates by day, everything else by text. The first raw value seen
// labels the group.
func groupKey(x any, typ ColumnType) string {
	switch typ {
	case Numeric:
		if f, ok := dataset.ToFloat(x); ok {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
	case Date:
		if d, ok := parseDate(x); ok {
			return "d:" + d.Format(isoDay)
		}
	}
	return "s:" + dataset.String(x)
}

func reduce(yc *dataset.Column, rows []int, agg Aggregator) (any, error) {
	if agg == AggCount {
		n := 0
		for _, i := range rows {
			if !dataset.IsMissing(yc.Values[i]) {
				n++
			}
		}
		return n, nil
	}
	vals := make([]float64, 0, len(rows))
	for _, i := range rows {
		v := yc.Values[i]
		if dataset.IsMissing(v) {
			continue
		}
		f, ok := dataset.ToFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s of %q: value %v: %w", agg, yc.Name, v, ErrNonNumericAggregate)
		}
		vals = append(vals, f)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	switch agg {
	case AggMin, AggMax:
		best := vals[0]
		for _, f := range vals[1:] {
			if (agg == AggMin && f < best) || (agg == AggMax && f > best) {
				best = f
			}
		}
		return best, nil
	}
	sum := decimal.Zero
	for _, f := range vals {
		sum = sum.Add(decimal.NewFromFloat(f))
	}
	if agg == AggAvg {
		sum = sum.Div(decimal.NewFromInt(int64(len(vals))))
	}
	out, _ := sum.Float64()
	return out, nil
}

// compareCells orders two cells by the column type. Missing cells, and cells
// that do not convert to the column type, sort after the rest.
func compareCells(a, b any, typ ColumnType) int {
	am, bm := dataset.IsMissing(a), dataset.IsMissing(b)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	}
	switch typ {
	case Numeric:
		fa, okA := dataset.ToFloat(a)
		fb, okB := dataset.ToFloat(b)
		if okA && okB {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
		if okA != okB {
			if okA {
				return -1
			}
			return 1
		}
	case Date:
		da, okA := parseDate(a)
		db, okB := parseDate(b)
		if okA && okB {
			return da.Compare(db)
		}
		if okA != okB {
			if okA {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(dataset.String(a), dataset.String(b))
}
