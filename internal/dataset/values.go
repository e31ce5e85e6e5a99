package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

// ToFloat coerces a cell to float64. Strings are trimmed and parsed; native
// numbers convert directly. Missing cells, booleans and NaN never coerce.
func ToFloat(v any) (float64, bool) {
	if IsMissing(v) {
		return 0, false
	}
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case bool, time.Time:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// fallbackLayouts are tried after dateparse gives up, mostly for day-first text.
var fallbackLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate converts a cell to a timestamp. Ambiguous slash dates resolve
// month-first through dateparse; day-first layouts are only a fallback.
func ParseDate(v any) (time.Time, bool) {
	if IsMissing(v) {
		return time.Time{}, false
	}
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s = strings.TrimSpace(x)
	default:
		s = fmt.Sprintf("%v", x)
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, true
	}
	for _, l := range fallbackLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
