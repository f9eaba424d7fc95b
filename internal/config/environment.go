package config

import (
	"os"
	"strings"
)

// applyEnvOverrides maps well-known deployment environment variables
// onto the config, taking precedence over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.MongoDB.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		cfg.MongoDB.Database = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("ALLOWED_HOSTS"); v != "" {
		cfg.Server.AllowedHosts = strings.Split(v, ",")
	}
}
