package forecast

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateKnownValues(t *testing.T) {
	m := Evaluate([]float64{1, 2, 3}, []float64{1, 2, 4})
	assert.InDelta(t, 1.0/3, m.MSE, 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/3), m.RMSE, 1e-12)
	assert.InDelta(t, 1.0/3, m.MAE, 1e-12)
	assert.InDelta(t, 0.5, m.R2, 1e-12)
	assert.InDelta(t, 0.0, m.AdjustedR2, 1e-12)
	assert.InDelta(t, 100.0/9, m.MAPE, 1e-9)
	assert.InDelta(t, 2.0/3, m.VarianceExplained, 1e-12)
}

func TestEvaluateDegenerateInputs(t *testing.T) {
	t.Run("perfect constant", func(t *testing.T) {
		m := Evaluate([]float64{5, 5, 5}, []float64{5, 5, 5})
		assert.Equal(t, 1.0, m.R2)
		assert.Equal(t, 1.0, m.VarianceExplained)
		assert.Equal(t, 0.0, m.MSE)
	})
	t.Run("constant truth with error", func(t *testing.T) {
		m := Evaluate([]float64{5, 5, 5}, []float64{4, 5, 6})
		assert.Equal(t, 0.0, m.R2)
		assert.Equal(t, 0.0, m.VarianceExplained)
	})
	t.Run("zero in truth", func(t *testing.T) {
		m := Evaluate([]float64{0, 2}, []float64{1, 1})
		assert.InDelta(t, 25.0, m.MAPE, 1e-12)
	})
	t.Run("mismatched lengths", func(t *testing.T) {
		m := Evaluate([]float64{1, 2, 3, 4}, []float64{1, 2})
		assert.Equal(t, 0.0, m.MSE)
		assert.Equal(t, 1.0, m.R2)
		assert.Equal(t, m.R2, m.AdjustedR2, "adjusted r2 falls back to r2 below 3 points")
	})
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Metrics{}, Evaluate(nil, []float64{1}))
	})
}

func TestEvaluateNeverReturnsNonFinite(t *testing.T) {
	cases := [][2][]float64{
		{{0, 0, 0}, {1, 2, 3}},
		{{1e308, -1e308}, {-1e308, 1e308}},
		{{math.NaN(), 1}, {1, 1}},
		{{1}, {math.Inf(1)}},
	}
	for _, c := range cases {
		m := Evaluate(c[0], c[1])
		v := reflect.ValueOf(m)
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i).Float()
			assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "%s = %v for %v", v.Type().Field(i).Name, f, c)
		}
	}
}
