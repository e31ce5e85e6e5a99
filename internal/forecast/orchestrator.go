package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
	"github.com/KaramelBytes/tabcast-cli/internal/logging"
)

const (
	maxHorizon = 365
	trainShare = 0.8
)

// Request describes one forecast run.
type Request struct {
	Method       string `json:"method"`
	DateColumn   string `json:"date_column"`
	TargetColumn string `json:"target_column"`
	Horizon      int    `json:"forecast_period"`
	Params       Params `json:"parameters,omitempty"`
}

// Interval holds per-step bounds parallel to Result.Forecast.
type Interval struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Result is the outcome of a successful run.
type Result struct {
	Method              Method         `json:"method"`
	Forecast            []float64      `json:"forecast"`
	Dates               []string       `json:"dates"`
	Metrics             Metrics        `json:"metrics"`
	ConfidenceIntervals Interval       `json:"confidence_intervals"`
	ModelInfo           map[string]any `json:"model_info,omitempty"`
}

// Orchestrator runs validation, preparation, evaluation and the final fit.
// It keeps no per-run state, so one value can serve concurrent runs.
type Orchestrator struct {
	registry Registry
}

// NewOrchestrator uses DefaultRegistry when reg is nil.
func NewOrchestrator(reg Registry) *Orchestrator {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Orchestrator{registry: reg}
}

// Run validates records, evaluates the method on an 80/20 split and forecasts
// req.Horizon days past the last date.
//
// Dates go through dataset.ParseDate, which reads ambiguous slash dates
// month-first. Day-first text must be normalized first, for example by
// analysis.InferTypes, which rewrites date columns to YYYY-MM-DD.
func (o *Orchestrator) Run(records []dataset.Record, req Request) (*Result, error) {
	method, err := ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	factory, ok := o.registry[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnsupportedMethod, method)
	}
	if req.Horizon < 1 || req.Horizon > maxHorizon {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, req.Horizon)
	}
	if err := Check(records, req.DateColumn, req.TargetColumn); err != nil {
		return nil, err
	}

	series, err := Prepare(records, req.DateColumn, req.TargetColumn)
	if err != nil {
		return nil, &ForecastingError{Method: method, Err: err}
	}
	split := int(float64(series.Len()) * trainShare)
	log := logging.WithFields("method", string(method), "rows", series.Len(), "horizon", req.Horizon,
		"train", split, "test", series.Len()-split)
	log.Info("running forecast")

	train, test := series.Slice(0, split), series.Slice(split, series.Len())
	eval, err := fitPredict(factory, train, req.Params, test.Len())
	if err != nil {
		return nil, &ForecastingError{Method: method, Err: fmt.Errorf("evaluation fit: %w", err)}
	}
	metrics := Evaluate(test.Values, eval.Values)

	model := factory()
	if err := model.Fit(series, req.Params); err != nil {
		return nil, &ForecastingError{Method: method, Err: err}
	}
	pred, err := model.Predict(req.Horizon)
	if err != nil {
		return nil, &ForecastingError{Method: method, Err: err}
	}
	if err := checkPrediction(pred, req.Horizon); err != nil {
		return nil, &ForecastingError{Method: method, Err: err}
	}

	res := &Result{
		Method:   method,
		Forecast: pred.Values,
		Dates:    futureDates(series, req.Horizon),
		Metrics:  metrics,
		ModelInfo: map[string]any{
			"train_size": split,
			"test_size":  test.Len(),
		},
	}
	if d, ok := model.(Describer); ok {
		for k, v := range d.Info() {
			res.ModelInfo[k] = v
		}
	}
	if pred.Lower != nil && pred.Upper != nil {
		res.ConfidenceIntervals = Interval{Lower: pred.Lower, Upper: pred.Upper}
		res.ModelInfo["native_bounds"] = true
	} else {
		res.ConfidenceIntervals = residualBounds(pred.Values, test.Values, eval.Values)
		res.ModelInfo["native_bounds"] = false
	}
	log.Info("forecast complete", "rmse", metrics.RMSE, "r2", metrics.R2)
	return res, nil
}

// checkPrediction enforces that values and any bounds cover the horizon.
func checkPrediction(p *Prediction, h int) error {
	if p == nil {
		return errors.New("backend returned no prediction")
	}
	if len(p.Values) != h {
		return fmt.Errorf("backend returned %d values for horizon %d", len(p.Values), h)
	}
	if p.Lower != nil && len(p.Lower) != h {
		return fmt.Errorf("backend returned %d lower bounds for horizon %d", len(p.Lower), h)
	}
	if p.Upper != nil && len(p.Upper) != h {
		return fmt.Errorf("backend returned %d upper bounds for horizon %d", len(p.Upper), h)
	}
	return nil
}

func fitPredict(factory Factory, s *PreparedSeries, p Params, h int) (*Prediction, error) {
	m := factory()
	if err := m.Fit(s, p); err != nil {
		return nil, err
	}
	return m.Predict(h)
}

// residualBounds puts ±1.96 standard deviations of the held-out residuals
// around each point forecast.
func residualBounds(forecast, actual, predicted []float64) Interval {
	n := min(len(actual), len(predicted))
	res := make([]float64, n)
	for i := range res {
		res[i] = actual[i] - predicted[i]
	}
	std := 0.0
	if n > 1 {
		std = stat.StdDev(res, nil)
	}
	iv := Interval{Lower: make([]float64, len(forecast)), Upper: make([]float64, len(forecast))}
	for i, v := range forecast {
		iv.Lower[i], iv.Upper[i] = v-normalZ95*std, v+normalZ95*std
	}
	return iv
}

func futureDates(s *PreparedSeries, h int) []string {
	last := s.Dates[s.Len()-1]
	out := make([]string, h)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1).Format(dateLayout)
	}
	return out
}
