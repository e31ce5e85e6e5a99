package forecast

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics scores a held-out prediction. Every field is finite.
type Metrics struct {
	MSE               float64 `json:"mse"`
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	R2                float64 `json:"r2"`
	MAPE              float64 `json:"mape"`
	AdjustedR2        float64 `json:"adjusted_r2"`
	VarianceExplained float64 `json:"variance_explained"`
}

// Evaluate truncates both inputs to the shorter length and computes every
// metric independently. A metric that fails or is not finite is reported as 0.
func Evaluate(yTrue, yPred []float64) Metrics {
	n := min(len(yTrue), len(yPred))
	yt, yp := yTrue[:n], yPred[:n]
	if n == 0 {
		slog.Warn("metric computation skipped", "metric", "all", "reason", "empty input")
		return Metrics{}
	}
	res := make([]float64, n)
	floats.SubTo(res, yt, yp)

	var m Metrics
	m.MSE = guardMetric("mse", func() float64 { return floats.Dot(res, res) / float64(n) })
	m.RMSE = guardMetric("rmse", func() float64 { return math.Sqrt(floats.Dot(res, res) / float64(n)) })
	m.MAE = guardMetric("mae", func() float64 {
		s := 0.0
		for _, r := range res {
			s += math.Abs(r)
		}
		return s / float64(n)
	})
	r2 := func() float64 {
		mean := stat.Mean(yt, nil)
		ssTot := 0.0
		for _, v := range yt {
			ssTot += (v - mean) * (v - mean)
		}
		ssRes := floats.Dot(res, res)
		switch {
		case ssTot == 0 && ssRes == 0:
			return 1
		case ssTot == 0:
			return 0
		}
		return 1 - ssRes/ssTot
	}
	m.R2 = guardMetric("r2", r2)
	m.MAPE = guardMetric("mape", func() float64 {
		s := 0.0
		for i, r := range res {
			term := math.Abs(r / yt[i])
			if math.IsNaN(term) || math.IsInf(term, 0) {
				continue
			}
			s += term
		}
		return s / float64(n) * 100
	})
	m.AdjustedR2 = guardMetric("adjusted_r2", func() float64 {
		v := r2()
		if n < 3 {
			return v
		}
		return 1 - (1-v)*float64(n-1)/float64(n-2)
	})
	m.VarianceExplained = guardMetric("variance_explained", func() float64 {
		vt, vr := popVariance(yt), popVariance(res)
		switch {
		case vt == 0 && vr == 0:
			return 1
		case vt == 0:
			return 0
		}
		return 1 - vr/vt
	})
	return m
}

func popVariance(x []float64) float64 {
	mean := stat.Mean(x, nil)
	s := 0.0
	for _, v := range x {
		s += (v - mean) * (v - mean)
	}
	return s / float64(len(x))
}

func guardMetric(name string, f func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("metric computation failed", "metric", name, "reason", fmt.Sprint(r))
			v = 0
		}
	}()
	v = f()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		slog.Warn("metric not finite", "metric", name, "value", fmt.Sprint(v))
		return 0
	}
	return v
}
