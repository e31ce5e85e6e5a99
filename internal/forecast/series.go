package forecast

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// PreparedSeries is a gap-free daily series. Dates are UTC midnights, one day apart.
type PreparedSeries struct {
	Dates  []time.Time
	Values []float64
}

// Point is one observation in its serialized form.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (s *PreparedSeries) Len() int { return len(s.Values) }

// Slice returns the sub-series [from, to). It shares backing arrays with s.
func (s *PreparedSeries) Slice(from, to int) *PreparedSeries {
	return &PreparedSeries{Dates: s.Dates[from:to], Values: s.Values[from:to]}
}

func (s *PreparedSeries) Points() []Point {
	out := make([]Point, len(s.Values))
	for i := range s.Values {
		out[i] = Point{Date: s.Dates[i].Format(dateLayout), Value: s.Values[i]}
	}
	return out
}

func (s *PreparedSeries) MarshalJSON() ([]byte, error) { return json.Marshal(s.Points()) }
