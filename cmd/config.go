package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/tabcast-cli/internal/config"
	"github.com/KaramelBytes/tabcast-cli/internal/forecast"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TabCast configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := activeConfig()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(w, "store_dir: %s\n", c.StoreDir)
		fmt.Fprintf(w, "default_method: %s\n", c.DefaultMethod)
		fmt.Fprintf(w, "default_horizon: %d\n", c.DefaultHorizon)
		if c.ForecastTimeoutSec > 0 {
			fmt.Fprintf(w, "forecast_timeout_sec: %d\n", c.ForecastTimeoutSec)
		}
		if c.Delimiter != "" {
			fmt.Fprintf(w, "delimiter: %q\n", c.Delimiter)
		}
		if c.MaxRows > 0 {
			fmt.Fprintf(w, "max_rows: %d\n", c.MaxRows)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "log_level":
			switch v := strings.ToLower(val); v {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = v
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch v := strings.ToLower(val); v {
			case "text", "json":
				cfg.LogFormat = v
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "store_dir":
			cfg.StoreDir = val
		case "default_method":
			m, err := forecast.ParseMethod(val)
			if err != nil {
				return err
			}
			cfg.DefaultMethod = string(m)
		case "default_horizon":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 || i > 365 {
				return fmt.Errorf("invalid default_horizon: %v (use 1-365)", val)
			}
			cfg.DefaultHorizon = i
		case "forecast_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for forecast_timeout_sec: %v", val)
			}
			cfg.ForecastTimeoutSec = i
		case "delimiter":
			cfg.Delimiter = val
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			cfg.MaxRows = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
