package forecast

import (
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

const (
	day        = 24 * time.Hour
	tukeyFence = 1.5
)

// Prepare turns validated records into a daily series: parse and sort, reindex
// to one value per day, interpolate gaps linearly and clip outliers to the
// quartiles with Tukey's rule. Ambiguous day-first text is read month-first,
// so callers pass inference-normalized dates.
func Prepare(records []dataset.Record, dateCol, targetCol string) (*PreparedSeries, error) {
	type obs struct {
		at  time.Time
		val float64
	}
	rows := make([]obs, 0, len(records))
	dropped := 0
	for i, r := range records {
		d, ok := dataset.ParseDate(r[dateCol])
		if !ok {
			slog.Warn("dropping row with unparseable date", "row", i, "value", r[dateCol])
			dropped++
			continue
		}
		f, ok := dataset.ToFloat(r[targetCol])
		if !ok {
			slog.Warn("dropping row with non-numeric target", "row", i, "value", r[targetCol])
			dropped++
			continue
		}
		rows = append(rows, obs{at: dataset.Day(d), val: f})
	}
	if len(rows) == 0 {
		return nil, errors.New("no valid rows after date and target conversion")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	first, last := rows[0].at, rows[len(rows)-1].at
	n := int(last.Sub(first)/day) + 1
	s := &PreparedSeries{Dates: make([]time.Time, n), Values: make([]float64, n)}
	known := make([]bool, n)
	for i := range s.Dates {
		s.Dates[i] = first.AddDate(0, 0, i)
	}
	for _, o := range rows {
		k := int(o.at.Sub(first) / day)
		if known[k] {
			slog.Warn("duplicate date, keeping last value", "date", o.at.Format(dateLayout))
		}
		s.Values[k], known[k] = o.val, true
	}
	interpolate(s.Values, known)
	lo, hi := clipTukey(s.Values)
	slog.Debug("prepared series",
		"rows", n, "dropped", dropped, "filled", n-countTrue(known), "q1", lo, "q3", hi)
	return s, nil
}

// interpolate fills unknown points on the line between the nearest known
// neighbours. The first and last points are always known.
func interpolate(vals []float64, known []bool) {
	prev := -1
	for i := range vals {
		if !known[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (vals[i] - vals[prev]) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				vals[k] = vals[prev] + step*float64(k-prev)
			}
		}
		prev = i
	}
}

// clipTukey replaces values outside [Q1-1.5·IQR, Q3+1.5·IQR] with Q1 or Q3.
func clipTukey(vals []float64) (q1, q3 float64) {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	q1, q3 = quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-tukeyFence*iqr, q3+tukeyFence*iqr
	for i, v := range vals {
		switch {
		case v < lower:
			vals[i] = q1
		case v > upper:
			vals[i] = q3
		}
	}
	return q1, q3
}

// quantile is the linear-between-closest-ranks estimator (R type 7), which
// places the Tukey fences where the pandas implementation did.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo, hi := int(math.Floor(pos)), int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
