// Package config loads daemon settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries every setting the daemon reads at startup. Blob storage has
// its own env-driven factory and is intentionally not duplicated here.
type Config struct {
	ListenAddr       string `env:"SPLITCORE_LISTEN_ADDR" envDefault:":8080"`
	DBDriver         string `env:"SPLITCORE_DB_DRIVER" envDefault:"memory"`
	DBPath           string `env:"SPLITCORE_DB_PATH" envDefault:"splitcore.db"`
	DBDSN            string `env:"SPLITCORE_DB_DSN"`
	MetricsNamespace string `env:"SPLITCORE_METRICS_NAMESPACE" envDefault:"splitcore"`
	Development      bool   `env:"SPLITCORE_DEV" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	switch cfg.DBDriver {
	case "memory", "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	return cfg, nil
}
