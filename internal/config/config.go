package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGatewayAPI    = "http://localhost:4005"
	DefaultProverTimeout = 2 * time.Minute
)

type Config struct {
	Prover       ProverConfig  `yaml:"prover"`
	Gateway      GatewayConfig `yaml:"gateway"`
	TrustProfile string        `yaml:"trust_profile"`
}

type ProverConfig struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	// Nested is set when this process was itself spawned as an external
	// prover. Environment only.
	Nested bool `yaml:"-"`
}

type GatewayConfig struct {
	// API is the base URL of the receipt-issuing gateway.
	API string `yaml:"api"`
	// Address is the expected signer, or "auto".
	Address string `yaml:"address"`
}

// Env holds the environment overrides. LUMINAIR_PROVER_CMD is the legacy
// name of RECEIPT_PROVER_CMD.
type Env struct {
	ConfigPath          string        `env:"RECEIPT_CONFIG_PATH"`
	ProverCommand       string        `env:"RECEIPT_PROVER_CMD"`
	LegacyProverCommand string        `env:"LUMINAIR_PROVER_CMD"`
	ProverTimeout       time.Duration `env:"RECEIPT_PROVER_TIMEOUT"`
	ProverNested        bool          `env:"RECEIPT_PROVER_NESTED"`
	GatewayAPI          string        `env:"RECEIPT_GATEWAY_API"`
	LegacyGatewayAPI    string        `env:"MCP_GATEWAY_API"`
	GatewayAddress      string        `env:"RECEIPT_GATEWAY_ADDR"`
	LegacyGatewayAddr   string        `env:"GATEWAY_ADDR"`
	TrustProfile        string        `env:"RECEIPT_TRUST_PROFILE"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Prover.Timeout < 0 {
		return fmt.Errorf("prover.timeout must not be negative")
	}
	if c.Gateway.API != "" && !strings.HasPrefix(c.Gateway.API, "http://") && !strings.HasPrefix(c.Gateway.API, "https://") {
		return fmt.Errorf("gateway.api must be an http(s) URL")
	}
	return nil
}

// ParseEnv reads overrides from environ (KEY=VALUE pairs, as os.Environ
// returns them).
func ParseEnv(environ []string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Resolve loads the config file named by path (or by RECEIPT_CONFIG_PATH
// when path is empty), applies environment overrides and fills defaults.
// A missing path means no file.
func Resolve(path string, environ []string) (Config, error) {
	e, err := ParseEnv(environ)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if cfgFile := firstNonEmpty(path, e.ConfigPath); cfgFile != "" {
		loaded, err := Load(cfgFile)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	cfg.Prover.Command = firstNonEmpty(e.ProverCommand, e.LegacyProverCommand, cfg.Prover.Command)
	if e.ProverTimeout > 0 {
		cfg.Prover.Timeout = e.ProverTimeout
	}
	if cfg.Prover.Timeout == 0 {
		cfg.Prover.Timeout = DefaultProverTimeout
	}
	cfg.Prover.Nested = e.ProverNested
	cfg.Gateway.API = firstNonEmpty(e.GatewayAPI, e.LegacyGatewayAPI, cfg.Gateway.API, DefaultGatewayAPI)
	cfg.Gateway.Address = firstNonEmpty(e.GatewayAddress, e.LegacyGatewayAddr, cfg.Gateway.Address)
	cfg.TrustProfile = firstNonEmpty(e.TrustProfile, cfg.TrustProfile)

	return cfg, cfg.Validate()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
