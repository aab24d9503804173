package config

import (
	"fmt"
	"strings"
)

func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if cfg.LogMaxSizeMB < 0 {
		return fmt.Errorf("config: LogMaxSizeMB must not be negative")
	}
	if strings.ContainsAny(cfg.MetricsNamespace, " -./") {
		return fmt.Errorf("config: MetricsNamespace %q is not a valid metric prefix", cfg.MetricsNamespace)
	}
	return nil
}
