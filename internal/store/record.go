package store

import (
	"time"

	"github.com/KaramelBytes/tabcast-cli/internal/forecast"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Record is one persisted forecast run.
type Record struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Method              string             `json:"method"`
	DateColumn          string             `json:"date_column"`
	TargetColumn        string             `json:"target_column"`
	ForecastPeriod      int                `json:"forecast_period"`
	Parameters          forecast.Params    `json:"parameters,omitempty"`
	ForecastData        []float64          `json:"forecast_data,omitempty"`
	ForecastDates       []string           `json:"forecast_dates,omitempty"`
	Metrics             *forecast.Metrics  `json:"metrics,omitempty"`
	ConfidenceIntervals *forecast.Interval `json:"confidence_intervals,omitempty"`
	ModelInfo           map[string]any     `json:"model_info,omitempty"`
	Status              string             `json:"status"`
	ErrorMessage        string             `json:"error_message,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// NewRecord builds a record for req. A nil err with a result marks it
// completed; otherwise it is failed and carries the error text.
func NewRecord(name string, req forecast.Request, res *forecast.Result, err error) *Record {
	if name == "" {
		name = req.TargetColumn + " forecast"
	}
	now := time.Now().UTC()
	r := &Record{
		Name:           name,
		Method:         req.Method,
		DateColumn:     req.DateColumn,
		TargetColumn:   req.TargetColumn,
		ForecastPeriod: req.Horizon,
		Parameters:     req.Params,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err != nil || res == nil {
		r.Status = StatusFailed
		if err != nil {
			r.ErrorMessage = err.Error()
		}
		return r
	}
	r.Status = StatusCompleted
	r.Method = string(res.Method)
	r.ForecastData = res.Forecast
	r.ForecastDates = res.Dates
	r.Metrics = &res.Metrics
	r.ConfidenceIntervals = &res.ConfidenceIntervals
	r.ModelInfo = res.ModelInfo
	return r
}
