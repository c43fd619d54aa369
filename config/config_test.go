package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != defaultRPCAddress {
		t.Fatalf("unexpected default RPCAddress %q", cfg.RPCAddress)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default file written: %v", err)
	}

	// reloading reads the file that was just written
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DataDir != cfg.DataDir {
		t.Fatalf("reloaded DataDir %q differs from %q", reloaded.DataDir, cfg.DataDir)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "RPCAddress = \"0.0.0.0:9000\"\nPausedModules = [\"swap\"]\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected RPCAddress %q", cfg.RPCAddress)
	}
	if cfg.DataDir != defaultDataDir {
		t.Fatalf("expected default DataDir, got %q", cfg.DataDir)
	}
	if len(cfg.PausedModules) != 1 || cfg.PausedModules[0] != "swap" {
		t.Fatalf("unexpected PausedModules %v", cfg.PausedModules)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad address", func(c *Config) { c.RPCAddress = "not-an-address" }},
		{"unknown module", func(c *Config) { c.PausedModules = []string{"lending"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
