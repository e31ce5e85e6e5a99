package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultMethod != "trend-seasonal" {
		t.Fatalf("default_method = %q", c.DefaultMethod)
	}
	if c.DefaultHorizon != 30 {
		t.Fatalf("default_horizon = %d", c.DefaultHorizon)
	}
	if c.StoreDir != filepath.Join(home, ".tabcast", "forecasts") {
		t.Fatalf("store_dir = %q", c.StoreDir)
	}
	if c.LogLevel != "info" || c.LogFormat != "text" {
		t.Fatalf("unexpected log defaults: %q %q", c.LogLevel, c.LogFormat)
	}
}

func TestSaveThenLoadRoundTripsFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "custom.yaml")

	in := &Global{LogLevel: "debug", DefaultMethod: "autoregressive", DefaultHorizon: 14, StoreDir: filepath.Join(home, "s")}
	if err := Save(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.LogLevel != "debug" || out.DefaultMethod != "autoregressive" || out.DefaultHorizon != 14 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.StoreDir != filepath.Join(home, "s") {
		t.Fatalf("store_dir = %q", out.StoreDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "c.yaml")
	if err := os.WriteFile(path, []byte("default_horizon: 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TABCAST_DEFAULT_HORIZON", "21")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DefaultHorizon != 21 {
		t.Fatalf("env should win over file, got %d", c.DefaultHorizon)
	}
}

func TestDefaultMatchesLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := Default()
	if *d != *loaded {
		t.Fatalf("Default() = %+v, Load defaults = %+v", d, loaded)
	}
}
