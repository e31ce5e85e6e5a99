package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// sequenceModel is a one-hidden-layer tanh network trained on sliding
// windows of min-max scaled values. Forecasts are produced recursively.
type sequenceModel struct {
	window int
	w1     [][]float64 // hidden x window
	b1     []float64
	w2     []float64
	b2     float64

	lo, span float64
	tail     []float64 // last window, scaled
	loss     float64
	epochs   int
}

func (m *sequenceModel) Fit(s *PreparedSeries, p Params) error {
	m.window = p.Int("sequence_length", 10)
	m.epochs = p.Int("epochs", 50)
	hidden := p.Int("hidden_units", 16)
	lr := p.Float("learning_rate", 0.01)
	seed := int64(p.Int("seed", 42))
	if m.window < 1 || m.epochs < 1 || hidden < 1 || lr <= 0 {
		return errors.New("sequence_length, epochs, hidden_units and learning_rate must be positive")
	}
	n := s.Len()
	if n <= m.window {
		return fmt.Errorf("series of %d points is too short for sequence_length %d", n, m.window)
	}

	m.lo = floats.Min(s.Values)
	m.span = floats.Max(s.Values) - m.lo
	scaled := make([]float64, n)
	for i, v := range s.Values {
		scaled[i] = m.scale(v)
	}

	rng := rand.New(rand.NewSource(seed))
	m.w1 = make([][]float64, hidden)
	lim1 := 1 / math.Sqrt(float64(m.window))
	for j := range m.w1 {
		m.w1[j] = make([]float64, m.window)
		for k := range m.w1[j] {
			m.w1[j][k] = (rng.Float64()*2 - 1) * lim1
		}
	}
	m.b1 = make([]float64, hidden)
	m.w2 = make([]float64, hidden)
	lim2 := 1 / math.Sqrt(float64(hidden))
	for j := range m.w2 {
		m.w2[j] = (rng.Float64()*2 - 1) * lim2
	}

	samples := n - m.window
	h := make([]float64, hidden)
	for epoch := 0; epoch < m.epochs; epoch++ {
		total := 0.0
		for _, i := range rng.Perm(samples) {
			x := scaled[i : i+m.window]
			e := m.forward(x, h) - scaled[i+m.window]
			total += e * e
			for j := range h {
				dh := e * m.w2[j] * (1 - h[j]*h[j])
				m.w2[j] -= lr * e * h[j]
				floats.AddScaled(m.w1[j], -lr*dh, x)
				m.b1[j] -= lr * dh
			}
			m.b2 -= lr * e
		}
		m.loss = total / float64(samples)
		if math.IsNaN(m.loss) || math.IsInf(m.loss, 0) {
			return fmt.Errorf("training diverged at epoch %d", epoch+1)
		}
	}
	m.tail = append([]float64(nil), scaled[n-m.window:]...)
	return nil
}

// forward fills h with hidden activations and returns the output.
func (m *sequenceModel) forward(x, h []float64) float64 {
	for j := range m.w1 {
		h[j] = math.Tanh(floats.Dot(m.w1[j], x) + m.b1[j])
	}
	return floats.Dot(m.w2, h) + m.b2
}

func (m *sequenceModel) scale(v float64) float64 {
	if m.span == 0 {
		return 0
	}
	return (v - m.lo) / m.span
}

func (m *sequenceModel) unscale(v float64) float64 { return v*m.span + m.lo }

func (m *sequenceModel) Predict(horizon int) (*Prediction, error) {
	if m.tail == nil {
		return nil, errors.New("model is not fitted")
	}
	win := append([]float64(nil), m.tail...)
	h := make([]float64, len(m.w2))
	out := &Prediction{Values: make([]float64, horizon)}
	for i := range out.Values {
		next := m.forward(win, h)
		out.Values[i] = m.unscale(next)
		win = append(win[1:], next)
	}
	return out, nil
}

func (m *sequenceModel) Info() map[string]any {
	return map[string]any{
		"sequence_length": m.window,
		"hidden_units":    len(m.w2),
		"epochs":          m.epochs,
		"final_loss":      m.loss,
	}
}
