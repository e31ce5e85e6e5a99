package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

const topValuesLimit = 10

// ColumnStats summarizes one column. Which fields are set depends on Type.
type ColumnStats struct {
	Column  string     `json:"column"`
	Type    ColumnType `json:"type"`
	Count   int        `json:"count"`
	Missing int        `json:"missing"`
	Unique  int        `json:"unique"`

	Numeric *NumericSummary `json:"numeric,omitempty"`

	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`

	TopValues []ValueCount `json:"top_values,omitempty"`
}

type NumericSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ComputeColumnStats returns the summary for column name.
func ComputeColumnStats(t *dataset.Table, types Types, name string) (*ColumnStats, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("stats %q: %w", name, ErrColumnNotFound)
	}
	cs := &ColumnStats{Column: name, Type: types.Of(name)}
	counts := map[string]int{}
	var present []any
	for _, v := range col.Values {
		if dataset.IsMissing(v) {
			cs.Missing++
			continue
		}
		present = append(present, v)
		counts[dataset.String(v)]++
	}
	cs.Count = len(present)
	cs.Unique = len(counts)

	switch cs.Type {
	case Numeric:
		vals := make([]float64, 0, len(present))
		for _, v := range present {
			if f, ok := dataset.ToFloat(v); ok {
				vals = append(vals, f)
			}
		}
		cs.Numeric = summarize(vals)
	case Date:
		var lo, hi string
		for _, v := range present {
			d, ok := parseDate(v)
			if !ok {
				continue
			}
			s := d.Format(isoDay)
			if lo == "" || s < lo {
				lo = s
			}
			if hi == "" || s > hi {
				hi = s
			}
		}
		cs.MinDate, cs.MaxDate = lo, hi
	default:
		cs.TopValues = topValues(counts, topValuesLimit)
	}
	return cs, nil
}

func summarize(vals []float64) *NumericSummary {
	if len(vals) == 0 {
		return &NumericSummary{}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s := &NumericSummary{
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
		Mean:   stat.Mean(vals, nil),
		Median: quantile(sorted, 0.5),
	}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s
}

func topValues(counts map[string]int, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// quantile interpolates linearly between the closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
