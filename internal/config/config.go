package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	StoreDir  string `mapstructure:"store_dir" yaml:"store_dir"`

	// Forecast defaults
	DefaultMethod      string `mapstructure:"default_method" yaml:"default_method"`
	DefaultHorizon     int    `mapstructure:"default_horizon" yaml:"default_horizon"`
	ForecastTimeoutSec int    `mapstructure:"forecast_timeout_sec" yaml:"forecast_timeout_sec"`

	// Loading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`
}

// Default returns the built-in defaults, used when no config can be loaded.
func Default() *Global {
	c := &Global{
		LogLevel:       "info",
		LogFormat:      "text",
		DefaultMethod:  "trend-seasonal",
		DefaultHorizon: 30,
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.StoreDir = filepath.Join(home, ".tabcast", "forecasts")
	}
	return c
}

// configDir returns ~/.tabcast, creating it if necessary.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".tabcast")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}
	return dir, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabcast/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABCAST")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("store_dir", "")
	v.SetDefault("default_method", "trend-seasonal")
	v.SetDefault("default_horizon", 30)
	v.SetDefault("forecast_timeout_sec", 0)
	v.SetDefault("delimiter", "")
	v.SetDefault("max_rows", 0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve store_dir default: ~/.tabcast/forecasts
	if c.StoreDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.StoreDir = filepath.Join(home, ".tabcast", "forecasts")
	}
	return &c, nil
}
