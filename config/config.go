// Package config loads the daemon configuration from a TOML file, creating
// a default file on first run.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress          string   `toml:"RPCAddress"`
	DataDir             string   `toml:"DataDir"`
	RPCAuthTokenEnv     string   `toml:"RPCAuthTokenEnv"`
	Environment         string   `toml:"Environment"`
	OTLPEndpoint        string   `toml:"OTLPEndpoint"`
	OTLPInsecure        bool     `toml:"OTLPInsecure"`
	PausedModules       []string `toml:"PausedModules"`
	ReadTimeoutSecs     int      `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSecs    int      `toml:"WriteTimeoutSeconds"`
	MaxRequestBodyBytes int64    `toml:"MaxRequestBodyBytes"`
}

const (
	defaultRPCAddress      = "127.0.0.1:8661"
	defaultDataDir         = "./custodian-data"
	defaultAuthTokenEnv    = "CUSTODIAN_RPC_TOKEN"
	defaultEnvironment     = "dev"
	defaultReadTimeoutSec  = 15
	defaultWriteTimeoutSec = 15
	defaultMaxBodyBytes    = 1 << 20
)

// Load reads the configuration from path, writing a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.RPCAuthTokenEnv) == "" {
		c.RPCAuthTokenEnv = defaultAuthTokenEnv
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = defaultEnvironment
	}
	if c.ReadTimeoutSecs <= 0 {
		c.ReadTimeoutSecs = defaultReadTimeoutSec
	}
	if c.WriteTimeoutSecs <= 0 {
		c.WriteTimeoutSecs = defaultWriteTimeoutSec
	}
	if c.MaxRequestBodyBytes <= 0 {
		c.MaxRequestBodyBytes = defaultMaxBodyBytes
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.RPCAddress); err != nil {
		return fmt.Errorf("config: invalid RPCAddress %q: %w", c.RPCAddress, err)
	}
	for _, module := range c.PausedModules {
		switch module {
		case "escrow", "swap":
		default:
			return fmt.Errorf("config: unknown module %q in PausedModules", module)
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
