package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration is usable in the current environment
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if IsProduction() {
		if cfg.DBPassword == "" {
			errs = append(errs, "db_password secret is required in production")
		}
		if cfg.DBSSLMode == "disable" {
			errs = append(errs, "DB_SSL_MODE must not be disable in production")
		}
	}
	if cfg.ServerPort == "" {
		errs = append(errs, "SERVER_PORT is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}
