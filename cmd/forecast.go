package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
	"github.com/KaramelBytes/tabcast-cli/internal/forecast"
	"github.com/KaramelBytes/tabcast-cli/internal/store"
	"github.com/KaramelBytes/tabcast-cli/internal/utils"
)

var (
	fcDate    string
	fcTarget  string
	fcMethod  string
	fcHorizon int
	fcParams  []string
	fcName    string
	fcNoSave  bool
	fcOutput  string
	fcTimeout time.Duration
)

type forecastRunner interface {
	Run(records []dataset.Record, req forecast.Request) (*forecast.Result, error)
}

// forecastDeps is swapped out in tests.
var forecastDeps = struct {
	runner func() forecastRunner
	sink   func(dir string) (store.Sink, error)
}{
	runner: func() forecastRunner { return forecast.NewOrchestrator(nil) },
	sink: func(dir string) (store.Sink, error) {
		s, err := store.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// forecastOutput is what the command prints: the result plus the record id.
type forecastOutput struct {
	ID string `json:"id,omitempty"`
	*forecast.Result
}

var forecastCmd = &cobra.Command{
	Use:   "forecast <file>",
	Short: "Forecast a numeric column over a date column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := activeConfig()
		params, err := parseParams(fcParams)
		if err != nil {
			return err
		}
		req := forecast.Request{
			Method:       fcMethod,
			DateColumn:   fcDate,
			TargetColumn: fcTarget,
			Horizon:      fcHorizon,
			Params:       params,
		}
		if !cmd.Flags().Changed("method") && c.DefaultMethod != "" {
			req.Method = c.DefaultMethod
		}
		if !cmd.Flags().Changed("horizon") && c.DefaultHorizon > 0 {
			req.Horizon = c.DefaultHorizon
		}
		timeout := fcTimeout
		if !cmd.Flags().Changed("timeout") && c.ForecastTimeoutSec > 0 {
			timeout = time.Duration(c.ForecastTimeoutSec) * time.Second
		}

		s, _, err := openSession(args[0])
		if err != nil {
			return err
		}
		t, err := s.Table()
		if err != nil {
			return err
		}

		res, runErr := runForecast(cmd.Context(), forecastDeps.runner(), t.Records(), req, timeout)

		out := forecastOutput{Result: res}
		if !fcNoSave {
			rec := store.NewRecord(fcName, req, res, runErr)
			if err := saveRecord(c.StoreDir, rec); err != nil {
				slog.Error("failed to store forecast", "error", err, "store_dir", c.StoreDir)
			} else {
				out.ID = rec.ID
			}
		}
		if runErr != nil {
			return runErr
		}

		if fcOutput != "" {
			b, err := utils.PrettyJSON(out)
			if err != nil {
				return err
			}
			if err := utils.EnsureDir(filepath.Dir(fcOutput)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(fcOutput, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote forecast to %s\n", fcOutput)
			return nil
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

// runForecast bounds the run by timeout when it is positive. The orchestrator
// itself is not cancellable, so a timed-out run is abandoned rather than stopped.
func runForecast(ctx context.Context, r forecastRunner, records []dataset.Record, req forecast.Request, timeout time.Duration) (*forecast.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type outcome struct {
		res *forecast.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.Run(records, req)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("forecast timed out after %s", timeout)
		}
		return nil, ctx.Err()
	}
}

func saveRecord(dir string, rec *store.Record) error {
	sink, err := forecastDeps.sink(dir)
	if err != nil {
		return err
	}
	return sink.Save(rec)
}

// parseParams turns repeated k=v flags into backend parameters. Values stay
// strings; backends coerce them.
func parseParams(kvs []string) (forecast.Params, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	p := forecast.Params{}
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: want key=value", kv)
		}
		p[k] = strings.TrimSpace(v)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().StringVar(&fcDate, "date", "", "date column")
	forecastCmd.Flags().StringVar(&fcTarget, "target", "", "numeric target column")
	forecastCmd.Flags().StringVar(&fcMethod, "method", "trend-seasonal", "forecasting method: trend-seasonal, autoregressive, sequence-model (aliases prophet, arima, lstm)")
	forecastCmd.Flags().IntVar(&fcHorizon, "horizon", 30, "number of future periods to forecast (1-365)")
	forecastCmd.Flags().StringArrayVar(&fcParams, "param", nil, "backend parameter key=value (repeatable)")
	forecastCmd.Flags().StringVar(&fcName, "name", "", "name for the stored forecast (default: \"<target> forecast\")")
	forecastCmd.Flags().BoolVar(&fcNoSave, "no-save", false, "do not store the forecast in history")
	forecastCmd.Flags().StringVar(&fcOutput, "output", "", "write the forecast JSON to this path instead of stdout")
	forecastCmd.Flags().DurationVar(&fcTimeout, "timeout", 0, "abort the forecast after this duration (0 disables)")
	_ = forecastCmd.MarkFlagRequired("date")
	_ = forecastCmd.MarkFlagRequired("target")
}
