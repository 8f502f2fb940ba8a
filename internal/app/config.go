package app

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/revly/internal/config"
)

// LoadConfig reads the configuration from an optional YAML file and applies
// environment variable overrides
func LoadConfig(path string) (config.Config, error) {
	var cfg config.Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, errm.Wrap(err, "config file is not accessible")
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, errm.Wrap(err, "failed to read config file")
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, errm.Wrap(err, "failed to read config from environment")
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errm.Wrap(err, "invalid config")
	}

	return cfg, nil
}
