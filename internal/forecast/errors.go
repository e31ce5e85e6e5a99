package forecast

import (
	"errors"
	"fmt"
)

var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrUnsupportedMethod = errors.New("unsupported forecasting method")
	ErrInvalidHorizon    = errors.New("forecast period must be between 1 and 365 days")
)

// ValidationError carries the validator's reason verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is makes errors.Is(err, ErrValidationFailed) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// ForecastingError wraps a backend fit or predict failure.
type ForecastingError struct {
	Method Method
	Err    error
}

func (e *ForecastingError) Error() string {
	return fmt.Sprintf("%s forecast failed: %v", e.Method, e.Err)
}

func (e *ForecastingError) Unwrap() error { return e.Err }
