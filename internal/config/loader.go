package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"videod/internal/common/fsutil"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Local weight storage. The pipeline load fails when these are not
	// pre-populated; videod never downloads weights itself.
	BaseWeightsDir   string   `json:"base_weights_dir" yaml:"base_weights_dir" toml:"base_weights_dir"`
	QuantWeightsDirs []string `json:"quant_weights_dirs" yaml:"quant_weights_dirs" toml:"quant_weights_dirs"`

	OutputsDir string `json:"outputs_dir" yaml:"outputs_dir" toml:"outputs_dir"`
	DBPath     string `json:"db_path" yaml:"db_path" toml:"db_path"`

	// Path to the diffusion worker binary hosting the actual pipeline.
	WorkerBin string `json:"worker_bin" yaml:"worker_bin" toml:"worker_bin"`

	// Optional device override (cuda, mps, cpu). Empty means probe.
	Device string `json:"device" yaml:"device" toml:"device"`

	// Model id to load; empty selects the probed recommendation.
	Model string `json:"model" yaml:"model" toml:"model"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// HTTP tunables.
	MaxBodyBytes       int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	GenerateTimeoutSec int64    `json:"generate_timeout_sec" yaml:"generate_timeout_sec" toml:"generate_timeout_sec"`
	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Normalize expands '~' in every path field and applies defaults for
// fields the file left unset.
func (c *Config) Normalize() error {
	var err error
	for _, p := range []*string{&c.BaseWeightsDir, &c.OutputsDir, &c.DBPath, &c.WorkerBin} {
		if *p, err = fsutil.ExpandHome(*p); err != nil {
			return err
		}
	}
	for i := range c.QuantWeightsDirs {
		if c.QuantWeightsDirs[i], err = fsutil.ExpandHome(c.QuantWeightsDirs[i]); err != nil {
			return err
		}
	}
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.OutputsDir == "" {
		c.OutputsDir = "outputs"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join("data", "videod.db")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return nil
}
