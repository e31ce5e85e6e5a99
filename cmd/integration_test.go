package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/tabcast-cli/internal/dataset"
	"github.com/KaramelBytes/tabcast-cli/internal/forecast"
	"github.com/KaramelBytes/tabcast-cli/internal/store"
)

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// writeSales writes n daily rows of date,sales,region into a temp HOME.
func writeSales(t *testing.T, n int) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	var b strings.Builder
	b.WriteString("date,sales,region\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		region := "north"
		if i%2 == 1 {
			region = "south"
		}
		fmt.Fprintf(&b, "%s,%g,%s\n", start.AddDate(0, 0, i).Format("2006-01-02"), 50+1.5*float64(i), region)
	}
	path := filepath.Join(home, "sales.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_InferStatsDescribe(t *testing.T) {
	path := writeSales(t, 31)

	var sum struct {
		Types     map[string]string `json:"column_types"`
		TotalRows int               `json:"total_rows"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "infer", path)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.TotalRows != 31 || sum.Types["date"] != "date" || sum.Types["sales"] != "numeric" || sum.Types["region"] != "categorical" {
		t.Fatalf("summary = %+v", sum)
	}

	out := mustRun(t, "stats", path, "--column", "sales")
	if !strings.Contains(out, `"min": 50`) || !strings.Contains(out, `"max": 95`) {
		t.Fatalf("stats output:\n%s", out)
	}
	if _, err := runCmd(t, "stats", path, "--column", "nope"); err == nil {
		t.Fatal("expected error for unknown column")
	}

	out = mustRun(t, "describe", path)
	if !strings.Contains(out, "[SCHEMA]") || !strings.Contains(out, "- date: date (non-null 31, missing 0.0%): 2024-01-01 to 2024-01-31") {
		t.Fatalf("describe output:\n%s", out)
	}
}

func TestCLI_FilterAndVisualize(t *testing.T) {
	path := writeSales(t, 31)

	var res struct {
		RowCount  int              `json:"row_count"`
		TotalRows int              `json:"total_rows"`
		Preview   []map[string]any `json:"preview"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "filter", path, "--where", "sales gt 60", "--preview", "2")), &res); err != nil {
		t.Fatal(err)
	}
	if res.RowCount != 24 || res.TotalRows != 31 || len(res.Preview) != 2 {
		t.Fatalf("filter = %+v", res)
	}

	filters := filepath.Join(filepath.Dir(path), "filters.yaml")
	yml := "- column: region\n  operator: eq\n  value: north\n"
	if err := os.WriteFile(filters, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(mustRun(t, "filter", path, "--filters", filters)), &res); err != nil {
		t.Fatal(err)
	}
	if res.RowCount != 16 {
		t.Fatalf("north rows = %d", res.RowCount)
	}

	var chart struct {
		X      []any `json:"x"`
		Y      []any `json:"y"`
		Counts []int `json:"counts"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "visualize", path, "--x", "region", "--y", "sales", "--group", "--agg", "count")), &chart); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(chart.X) != "[north south]" || fmt.Sprint(chart.Y) != "[16 15]" || fmt.Sprint(chart.Counts) != "[16 15]" {
		t.Fatalf("chart = %+v", chart)
	}
}

func TestCLI_Validate(t *testing.T) {
	path := writeSales(t, 31)
	if out := mustRun(t, "validate", path, "--date", "date", "--target", "sales"); !strings.Contains(out, "Data validation successful") {
		t.Fatalf("validate output: %s", out)
	}
	_, err := runCmd(t, "validate", path, "--date", "date", "--target", "region")
	if err == nil || !strings.Contains(err.Error(), "Target column 'region' contains non-numeric values") {
		t.Fatalf("err = %v", err)
	}

	short := writeSales(t, 10)
	_, err = runCmd(t, "validate", short, "--date", "date", "--target", "sales")
	if err == nil || err.Error() != "Insufficient data points (minimum 30 required)" {
		t.Fatalf("err = %v", err)
	}
}

func TestCLI_ForecastAndHistory(t *testing.T) {
	path := writeSales(t, 31)

	var res struct {
		ID       string    `json:"id"`
		Method   string    `json:"method"`
		Forecast []float64 `json:"forecast"`
		Dates    []string  `json:"dates"`
	}
	out := mustRun(t, "forecast", path, "--date", "date", "--target", "sales", "--method", "prophet", "--horizon", "5")
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.ID == "" || res.Method != "trend-seasonal" || len(res.Forecast) != 5 || res.Dates[0] != "2024-02-01" {
		t.Fatalf("forecast = %+v", res)
	}

	_, err := runCmd(t, "forecast", path, "--date", "date", "--target", "region", "--name", "bad run")
	if err == nil {
		t.Fatal("expected validation failure")
	}

	list := mustRun(t, "history", "list")
	if !strings.Contains(list, res.ID[:8]) || !strings.Contains(list, "sales forecast") || !strings.Contains(list, "bad run") || !strings.Contains(list, "failed") {
		t.Fatalf("history list:\n%s", list)
	}

	show := mustRun(t, "history", "show", res.ID[:8])
	if !strings.Contains(show, `"status": "completed"`) || !strings.Contains(show, `"forecast_period": 5`) {
		t.Fatalf("history show:\n%s", show)
	}

	mustRun(t, "history", "delete", res.ID)
	if _, err := runCmd(t, "history", "show", res.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCLI_ForecastUsesConfigDefaultsAndOutputFile(t *testing.T) {
	path := writeSales(t, 31)
	mustRun(t, "config", "set", "default_horizon", "7")
	if out := mustRun(t, "config", "show"); !strings.Contains(out, "default_horizon: 7") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "default_method", "xgboost"); !errors.Is(err, forecast.ErrUnsupportedMethod) {
		t.Fatalf("err = %v", err)
	}

	dest := filepath.Join(filepath.Dir(path), "out", "fc.json")
	mustRun(t, "forecast", path, "--date", "date", "--target", "sales", "--no-save", "--output", dest)
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		ID       string    `json:"id"`
		Forecast []float64 `json:"forecast"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatal(err)
	}
	if res.ID != "" || len(res.Forecast) != 7 {
		t.Fatalf("forecast file = %+v", res)
	}
	if list := mustRun(t, "history", "list"); !strings.Contains(list, "No forecasts found") {
		t.Fatalf("--no-save stored a record:\n%s", list)
	}
}

type blockingRunner struct{ release chan struct{} }

func (b blockingRunner) Run([]dataset.Record, forecast.Request) (*forecast.Result, error) {
	<-b.release
	return nil, errors.New("released")
}

func TestCLI_ForecastTimeout(t *testing.T) {
	path := writeSales(t, 31)
	release := make(chan struct{})
	old := forecastDeps.runner
	forecastDeps.runner = func() forecastRunner { return blockingRunner{release: release} }
	t.Cleanup(func() {
		close(release)
		forecastDeps.runner = old
	})

	_, err := runCmd(t, "forecast", path, "--date", "date", "--target", "sales", "--no-save", "--timeout", "50ms")
	if err == nil || err.Error() != "forecast timed out after 50ms" {
		t.Fatalf("err = %v", err)
	}
}

func TestCLI_ForecastStoreFailureStillPrints(t *testing.T) {
	path := writeSales(t, 31)
	old := forecastDeps.sink
	forecastDeps.sink = func(string) (store.Sink, error) { return nil, errors.New("disk full") }
	t.Cleanup(func() { forecastDeps.sink = old })

	out := mustRun(t, "forecast", path, "--date", "date", "--target", "sales", "--horizon", "3")
	var res struct {
		ID       string    `json:"id"`
		Forecast []float64 `json:"forecast"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.ID != "" || len(res.Forecast) != 3 {
		t.Fatalf("forecast = %+v", res)
	}
}

func TestParseWhere(t *testing.T) {
	c, err := parseWhere("  region   starts_with   North East ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Column != "region" || c.Operator != "starts_with" || c.Value != "North East" {
		t.Fatalf("clause = %+v", c)
	}

	c, err = parseWhere("sales between 10..20")
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := c.Value.(map[string]any); !ok || m["min"] != "10" || m["max"] != "20" {
		t.Fatalf("between value = %#v", c.Value)
	}

	c, err = parseWhere("sales >= 5")
	if err != nil || c.Operator != "ge" {
		t.Fatalf("clause = %+v, err = %v", c, err)
	}

	for _, bad := range []string{"", "sales", "sales gt", "sales like x", "sales between 10"} {
		if _, err := parseWhere(bad); err == nil {
			t.Errorf("parseWhere(%q) should fail", bad)
		}
	}
}

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"epochs=20", " p = 2 "})
	if err != nil {
		t.Fatal(err)
	}
	if p["epochs"] != "20" || p["p"] != "2" {
		t.Fatalf("params = %v", p)
	}
	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatal("expected error")
	}
	if p, _ := parseParams(nil); p != nil {
		t.Fatalf("params = %v", p)
	}
}
