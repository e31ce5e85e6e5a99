package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxARMAOrder = 5
	maxDiffOrder = 2
	ridge        = 1e-8
	normalZ95    = 1.96
)

type arimaOrder struct{ p, d, q int }

func (o arimaOrder) String() string { return fmt.Sprintf("ARIMA(%d,%d,%d)", o.p, o.d, o.q) }

// arima fits ARIMA(p,d,q) with the Hannan–Rissanen two-step regression on the
// differenced series. An order of (0,0,0) asks for an AIC grid search.
type arima struct {
	order    arimaOrder
	c        float64
	phi      []float64
	theta    []float64
	sigma2   float64
	aic, bic float64
	auto     bool

	w     []float64 // differenced series
	eps   []float64 // innovations aligned with w
	tails []float64 // last value of each differencing level
}

func (m *arima) Fit(s *PreparedSeries, p Params) error {
	o := arimaOrder{p: p.Int("p", 1), d: p.Int("d", 1), q: p.Int("q", 1)}
	if o.p < 0 || o.p > maxARMAOrder || o.q < 0 || o.q > maxARMAOrder || o.d < 0 || o.d > maxDiffOrder {
		return fmt.Errorf("order %s out of range: p,q in [0,%d], d in [0,%d]", o, maxARMAOrder, maxDiffOrder)
	}
	if o == (arimaOrder{}) {
		best, err := selectOrder(s.Values)
		if err != nil {
			return err
		}
		*m = *best
		m.auto = true
		return nil
	}
	fit, err := fitARIMA(s.Values, o)
	if err != nil {
		return err
	}
	*m = *fit
	return nil
}

// selectOrder keeps the lowest-AIC model over p,q in [0,2] and d in [0,1].
func selectOrder(y []float64) (*arima, error) {
	var best *arima
	for d := 0; d <= 1; d++ {
		for p := 0; p <= 2; p++ {
			for q := 0; q <= 2; q++ {
				m, err := fitARIMA(y, arimaOrder{p, d, q})
				if err != nil {
					continue
				}
				if best == nil || m.aic < best.aic {
					best = m
				}
			}
		}
	}
	if best == nil {
		return nil, errors.New("no ARIMA order could be fitted")
	}
	return best, nil
}

func fitARIMA(y []float64, o arimaOrder) (*arima, error) {
	w, tails, err := difference(y, o.d)
	if err != nil {
		return nil, err
	}
	eps := make([]float64, len(w))
	start := o.p
	if o.q > 0 {
		long := max(o.p+o.q, min(10, len(w)/4))
		if len(w)-long <= long+1 {
			return nil, fmt.Errorf("%s: series too short for the long AR step", o)
		}
		X, Y := lagDesign(w, eps, long, long, 0)
		coef, err := leastSquares(X, Y)
		if err != nil {
			return nil, err
		}
		for t := long; t < len(w); t++ {
			eps[t] = w[t] - dotLags(coef, w, eps, t, long, 0)
		}
		start = max(o.p, long+o.q)
	}

	k := 1 + o.p + o.q
	rows := len(w) - start
	if rows <= k {
		return nil, fmt.Errorf("%s: need more than %d observations after differencing, have %d", o, k+start, len(w))
	}
	X, Y := lagDesign(w, eps, start, o.p, o.q)
	beta, err := leastSquares(X, Y)
	if err != nil {
		return nil, err
	}

	m := &arima{order: o, c: beta[0], phi: beta[1 : 1+o.p], theta: beta[1+o.p:], tails: tails, w: w}
	m.eps = make([]float64, len(w))
	ssr := 0.0
	for t := start; t < len(w); t++ {
		r := w[t] - dotLags(beta, w, eps, t, o.p, o.q)
		m.eps[t] = r
		ssr += r * r
	}
	m.sigma2 = math.Max(ssr/float64(rows), 1e-12)
	ll := float64(rows) * math.Log(m.sigma2)
	m.aic = ll + 2*float64(k+1)
	m.bic = ll + float64(k+1)*math.Log(float64(rows))
	return m, nil
}

// lagDesign builds rows [1, w[t-1..t-p], eps[t-1..t-q]] for t >= start.
func lagDesign(w, eps []float64, start, p, q int) (*mat.Dense, *mat.VecDense) {
	rows := len(w) - start
	X := mat.NewDense(rows, 1+p+q, nil)
	Y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		X.Set(r, 0, 1)
		for i := 1; i <= p; i++ {
			X.Set(r, i, w[t-i])
		}
		for j := 1; j <= q; j++ {
			X.Set(r, p+j, eps[t-j])
		}
		Y.SetVec(r, w[t])
	}
	return X, Y
}

func dotLags(beta, w, eps []float64, t, p, q int) float64 {
	v := beta[0]
	for i := 1; i <= p; i++ {
		if t-i >= 0 {
			v += beta[i] * w[t-i]
		}
	}
	for j := 1; j <= q; j++ {
		if t-j >= 0 {
			v += beta[p+j] * eps[t-j]
		}
	}
	return v
}

// leastSquares solves the ridge-stabilised normal equations (X'X + λI)b = X'y.
func leastSquares(X *mat.Dense, y *mat.VecDense) ([]float64, error) {
	_, k := X.Dims()
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for i := 0; i < k; i++ {
		xtx.Set(i, i, xtx.At(i, i)+ridge)
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), y)
	var b mat.VecDense
	if err := b.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares: %w", err)
		}
	}
	return mat.Col(nil, 0, &b), nil
}

func difference(y []float64, d int) ([]float64, []float64, error) {
	cur := y
	tails := make([]float64, d)
	for k := 0; k < d; k++ {
		if len(cur) < 2 {
			return nil, nil, fmt.Errorf("cannot difference %d times a series of %d points", d, len(y))
		}
		tails[k] = cur[len(cur)-1]
		next := make([]float64, len(cur)-1)
		for i := range next {
			next[i] = cur[i+1] - cur[i]
		}
		cur = next
	}
	return cur, tails, nil
}

func (m *arima) Predict(h int) (*Prediction, error) {
	if m.w == nil {
		return nil, errors.New("model is not fitted")
	}
	p, q := len(m.phi), len(m.theta)
	beta := append(append([]float64{m.c}, m.phi...), m.theta...)
	w := append([]float64(nil), m.w...)
	eps := append([]float64(nil), m.eps...)
	tails := append([]float64(nil), m.tails...)

	out := &Prediction{Values: make([]float64, h), Lower: make([]float64, h), Upper: make([]float64, h)}
	psi := m.psiWeights(h)
	sigma := math.Sqrt(m.sigma2)
	cum := 0.0
	for i := 0; i < h; i++ {
		v := dotLags(beta, w, eps, len(w), p, q)
		w = append(w, v)
		eps = append(eps, 0)
		for k := len(tails) - 1; k >= 0; k-- {
			tails[k] += v
			v = tails[k]
		}
		cum += psi[i] * psi[i]
		half := normalZ95 * sigma * math.Sqrt(cum)
		out.Values[i], out.Lower[i], out.Upper[i] = v, v-half, v+half
	}
	return out, nil
}

// psiWeights expands the MA(∞) form of the integrated model.
func (m *arima) psiWeights(h int) []float64 {
	ar := []float64{1}
	for _, ph := range m.phi {
		ar = append(ar, -ph)
	}
	for k := 0; k < m.order.d; k++ {
		ar = polyMul(ar, []float64{1, -1})
	}
	psi := make([]float64, h)
	if h == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j <= len(m.theta) {
			v = m.theta[j-1]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			v -= ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func (m *arima) Info() map[string]any {
	return map[string]any{
		"p":             m.order.p,
		"d":             m.order.d,
		"q":             m.order.q,
		"aic":           m.aic,
		"bic":           m.bic,
		"auto_selected": m.auto,
	}
}
