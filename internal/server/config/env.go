package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by the server.
const EnvPrefix = "COOKBOOK_"

// parseEnv overlays variables such as COOKBOOK_DATABASE_DSN. Unset
// variables leave the current value untouched.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
