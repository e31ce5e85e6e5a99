package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

const maxCorrPairs = 10

// Report is a whole-table summary: per-column statistics plus the
// strongest pairwise correlations between numeric columns.
type Report struct {
	Name         string         `json:"name,omitempty"`
	Rows         int            `json:"rows"`
	Columns      []*ColumnStats `json:"columns"`
	Correlations []PairCorr     `json:"correlations,omitempty"`
}

type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
	N int     `json:"n"`
}

// Describe builds a Report for t. Columns keep table order.
func Describe(t *dataset.Table, types Types, name string) (*Report, error) {
	r := &Report{Name: name, Rows: t.Len()}
	var numeric []string
	for _, c := range t.Names() {
		cs, err := ComputeColumnStats(t, types, c)
		if err != nil {
			return nil, err
		}
		r.Columns = append(r.Columns, cs)
		if cs.Type == Numeric {
			numeric = append(numeric, c)
		}
	}
	r.Correlations = correlations(t, numeric)
	return r, nil
}

// correlations computes Pearson r over rows where both columns are present
// and returns the strongest pairs by |r|.
func correlations(t *dataset.Table, cols []string) []PairCorr {
	var out []PairCorr
	for i := 0; i < len(cols); i++ {
		a, _ := t.Column(cols[i])
		for j := i + 1; j < len(cols); j++ {
			b, _ := t.Column(cols[j])
			var xs, ys []float64
			for k := range a.Values {
				x, okx := dataset.ToFloat(a.Values[k])
				y, oky := dataset.ToFloat(b.Values[k])
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 3 {
				continue
			}
			rho := stat.Correlation(xs, ys, nil)
			if math.IsNaN(rho) {
				continue
			}
			out = append(out, PairCorr{A: cols[i], B: cols[j], R: rho, N: len(xs)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	if len(out) > maxCorrPairs {
		out = out[:maxCorrPairs]
	}
	return out
}

// Markdown renders a compact report for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Columns {
		missPct := 0.0
		if total := c.Count + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Column), c.Type, c.Count, missPct))
		switch {
		case c.Numeric != nil:
			n := c.Numeric
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", n.Min, n.Max, n.Mean, n.Median, n.Std))
		case c.MinDate != "":
			b.WriteString(fmt.Sprintf(": %s to %s", c.MinDate, c.MaxDate))
		case len(c.TopValues) > 0:
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Correlations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Correlations {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", safeName(p.A), safeName(p.B), p.R, p.N))
		}
	}
	return b.String()
}

func safeName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
