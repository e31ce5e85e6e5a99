package analysis

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
)

const (
	numericThreshold = 0.95
	dateThreshold    = 0.9
	dateSampleSize   = 100
	isoDay           = "2006-01-02"
)

type datePattern struct {
	name   string
	re     *regexp.Regexp
	layout string
}

// Day-first patterns come before year-first ones; order decides ambiguous values.
var datePatterns = []datePattern{
	{"DD/MM/YYYY", regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "2/1/2006"},
	{"DD-MM-YYYY", regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "2-1-2006"},
	{"DD.MM.YYYY", regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`), "2.1.2006"},
	{"YYYY/MM/DD", regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`), "2006/1/2"},
	{"YYYY-MM-DD", regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`), "2006-1-2"},
	{"YYYY.MM.DD", regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}$`), "2006.1.2"},
	{"DD/MM/YY", regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "2/1/06"},
	{"DD-MM-YY", regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`), "2-1-06"},
	{"DD.MM.YY", regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2}$`), "2.1.06"},
}

func (p datePattern) parse(s string) (time.Time, bool) {
	if !p.re.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(p.layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// matchDate returns the index of the first pattern that parses s, or -1.
func matchDate(s string) int {
	for i, p := range datePatterns {
		if _, ok := p.parse(s); ok {
			return i
		}
	}
	return -1
}

// InferTypes classifies every column of t. Date columns are rewritten in
// place to YYYY-MM-DD strings.
func InferTypes(t *dataset.Table) Types {
	return Infer(t).Types
}

// Infer is InferTypes plus the canonical date pattern of each date column.
func Infer(t *dataset.Table) Schema {
	s := Schema{Types: Types{}, DateFormats: map[string]string{}}
	if t == nil {
		return s
	}
	for _, c := range t.Columns {
		typ, format := inferColumn(c)
		s.Types[c.Name] = typ
		if typ == Date {
			s.DateFormats[c.Name] = format
		}
	}
	return s
}

func inferColumn(c *dataset.Column) (ColumnType, string) {
	present := make([]int, 0, len(c.Values))
	for i, v := range c.Values {
		if !dataset.IsMissing(v) {
			present = append(present, i)
		}
	}
	if len(present) == 0 {
		return Categorical, ""
	}

	ok := 0
	for _, i := range present {
		if _, isNum := dataset.ToFloat(c.Values[i]); isNum {
			ok++
		}
	}
	if float64(ok)/float64(len(present)) >= numericThreshold {
		return Numeric, ""
	}

	sample := present
	if len(sample) > dateSampleSize {
		sample = sample[:dateSampleSize]
	}
	matches, canonical := 0, -1
	for _, i := range sample {
		if p := matchDate(cellText(c.Values[i])); p >= 0 {
			matches++
			if canonical < 0 {
				canonical = p
			}
		}
	}
	if canonical < 0 || float64(matches)/float64(len(sample)) <= dateThreshold {
		return Categorical, ""
	}

	pat := datePatterns[canonical]
	rewritten := make([]string, len(present))
	for k, i := range present {
		d, ok := pat.parse(cellText(c.Values[i]))
		if !ok {
			slog.Debug("date pattern rejected", "column", c.Name, "pattern", pat.name, "value", c.Values[i])
			return Categorical, ""
		}
		rewritten[k] = d.Format(isoDay)
	}
	for k, i := range present {
		c.Values[i] = rewritten[k]
	}
	return Date, pat.name
}

// parseDate reads a cell or filter value. Text goes through the inference
// patterns first, so day-first input agrees with the ISO values inference
// wrote; anything else falls back to dataset.ParseDate. The result is a day.
func parseDate(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return dataset.Day(t), true
	}
	s := cellText(v)
	if i := matchDate(s); i >= 0 {
		d, _ := datePatterns[i].parse(s)
		return d, true
	}
	d, ok := dataset.ParseDate(v)
	if !ok {
		return time.Time{}, false
	}
	return dataset.Day(d), true
}

func cellText(v any) string { return strings.TrimSpace(dataset.String(v)) }
