package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir          = "./carbonmkt-data"
	DefaultNetworkName      = "carbon-local"
	DefaultEnvironment      = "dev"
	DefaultMetricsNamespace = "carbonmkt"
)

type Config struct {
	DataDir          string `toml:"DataDir" yaml:"data_dir"`
	NetworkName      string `toml:"NetworkName" yaml:"network_name"`
	Environment      string `toml:"Environment" yaml:"environment"`
	LogFile          string `toml:"LogFile" yaml:"log_file"`
	LogMaxSizeMB     int    `toml:"LogMaxSizeMB" yaml:"log_max_size_mb"`
	MetricsNamespace string `toml:"MetricsNamespace" yaml:"metrics_namespace"`
	Pauses           Pauses `toml:"pauses" yaml:"pauses"`
}

// Load loads the configuration from the given path. A missing file is created
// with default values. Files ending in .yaml or .yml are decoded as YAML, all
// others as TOML.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown field %q in %s", undecoded[0].String(), path)
		}
	}

	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh data directory.
func Default() *Config {
	return &Config{
		DataDir:          DefaultDataDir,
		NetworkName:      DefaultNetworkName,
		Environment:      DefaultEnvironment,
		LogMaxSizeMB:     100,
		MetricsNamespace: DefaultMetricsNamespace,
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = DefaultEnvironment
	}
	if strings.TrimSpace(c.MetricsNamespace) == "" {
		c.MetricsNamespace = DefaultMetricsNamespace
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
