// Package forecast validates and prepares historical records, fits one of the
// registered backends and reports a horizon forecast with metrics and bounds.
package forecast

import (
	"fmt"
	"sort"
	"strings"
)

// Method names a forecasting backend.
type Method string

const (
	SequenceModel  Method = "sequence-model"
	Autoregressive Method = "autoregressive"
	TrendSeasonal  Method = "trend-seasonal"
)

var methodAliases = map[string]Method{
	"lstm":    SequenceModel,
	"arima":   Autoregressive,
	"prophet": TrendSeasonal,
}

// ParseMethod resolves a canonical method name or one of its aliases.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if m, ok := methodAliases[name]; ok {
		return m, nil
	}
	switch m := Method(name); m {
	case SequenceModel, Autoregressive, TrendSeasonal:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// Prediction is a backend's output. Lower and Upper are nil when the
// backend has no native interval.
type Prediction struct {
	Values []float64
	Lower  []float64
	Upper  []float64
}

// Forecaster is one fitted model. Instances are not reused across fits.
type Forecaster interface {
	Fit(series *PreparedSeries, params Params) error
	Predict(horizon int) (*Prediction, error)
}

// Describer is implemented by backends that report fitted model details.
type Describer interface {
	Info() map[string]any
}

type Factory func() Forecaster

type Registry map[Method]Factory

// DefaultRegistry wires the three built-in backends.
func DefaultRegistry() Registry {
	return Registry{
		SequenceModel:  func() Forecaster { return &sequenceModel{} },
		Autoregressive: func() Forecaster { return &arima{} },
		TrendSeasonal:  func() Forecaster { return &trendSeasonal{} },
	}
}

// Methods lists the registered method names in sorted order.
func (r Registry) Methods() []string {
	out := make([]string, 0, len(r))
	for m := range r {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}
