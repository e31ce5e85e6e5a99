package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	weeklyPeriod     = 7
	minSeasonalDays  = 2 * weeklyPeriod
	defaultIntervalW = 0.95
)

// trendSeasonal is an additive model: linear trend plus an optional weekly
// profile estimated from the detrended residuals.
type trendSeasonal struct {
	n         int
	intercept float64
	slope     float64
	season    []float64
	weekly    bool
	sigma     float64
	xbar, sxx float64
	z         float64
	width     float64
}

func (m *trendSeasonal) Fit(s *PreparedSeries, p Params) error {
	if g := p.String("growth", "linear"); g != "linear" {
		return fmt.Errorf("growth %q is not supported, only linear", g)
	}
	m.width = p.Float("interval_width", defaultIntervalW)
	if m.width <= 0 || m.width >= 1 {
		return fmt.Errorf("interval_width must be in (0,1), got %v", m.width)
	}
	n := s.Len()
	if n < 3 {
		return errors.New("trend model needs at least 3 points")
	}
	x := make([]float64, n)
	floats.Span(x, 0, float64(n-1))
	m.n = n
	m.intercept, m.slope = stat.LinearRegression(x, s.Values, nil, false)

	resid := make([]float64, n)
	for i, v := range s.Values {
		resid[i] = v - m.trend(float64(i))
	}
	m.season = make([]float64, weeklyPeriod)
	m.weekly = p.Bool("weekly_seasonality", true) && n >= minSeasonalDays
	if m.weekly {
		var counts [weeklyPeriod]float64
		for i, r := range resid {
			m.season[i%weeklyPeriod] += r
			counts[i%weeklyPeriod]++
		}
		for k := range m.season {
			m.season[k] /= counts[k]
		}
		floats.AddConst(-stat.Mean(m.season, nil), m.season)
		for i := range resid {
			resid[i] -= m.season[i%weeklyPeriod]
		}
	}

	m.sigma = math.Sqrt(floats.Dot(resid, resid) / float64(n-2))
	m.xbar = stat.Mean(x, nil)
	for _, xi := range x {
		m.sxx += (xi - m.xbar) * (xi - m.xbar)
	}
	m.z = distuv.UnitNormal.Quantile(0.5 + m.width/2)
	return nil
}

func (m *trendSeasonal) trend(x float64) float64 { return m.intercept + m.slope*x }

func (m *trendSeasonal) Predict(h int) (*Prediction, error) {
	if m.n == 0 {
		return nil, errors.New("model is not fitted")
	}
	out := &Prediction{Values: make([]float64, h), Lower: make([]float64, h), Upper: make([]float64, h)}
	for i := 0; i < h; i++ {
		t := m.n + i
		x := float64(t)
		v := m.trend(x) + m.season[t%weeklyPeriod]
		half := m.z * m.sigma * math.Sqrt(1+1/float64(m.n)+(x-m.xbar)*(x-m.xbar)/m.sxx)
		out.Values[i], out.Lower[i], out.Upper[i] = v, v-half, v+half
	}
	return out, nil
}

func (m *trendSeasonal) Info() map[string]any {
	return map[string]any{
		"trend_intercept":    m.intercept,
		"trend_slope":        m.slope,
		"weekly_seasonality": m.weekly,
		"interval_width":     m.width,
	}
}
