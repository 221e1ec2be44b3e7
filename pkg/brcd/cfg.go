package brcd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/brc/common/go/logging"
	brc "github.com/yanet-platform/brc/modules/brc/controlplane"
)

type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Brc is the configuration of the cache module.
	Brc *brc.Config `yaml:"brc"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Brc:     brc.DefaultConfig(),
	}
}

// LoadConfig loads the configuration from the given path, on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize config: %w", err)
	}
	if err := cfg.Brc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid brc config: %w", err)
	}

	return cfg, nil
}
