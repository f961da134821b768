package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// parseEnv overlays the ACCOUNTS_* variables of environ onto config.
// Unset variables leave fields untouched.
func parseEnv(config *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		return oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	return nil
}

// loadDotEnv adds the variables of path to the process environment.
// A missing file is not an error.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
