package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a loaded Config against its struct-tag validation
// rules (required fields, oneof enumerations, numeric ranges).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Reader.Transport == "unix" && cfg.Reader.Socket == "" {
		return fmt.Errorf("invalid configuration: reader.socket is required when reader.transport is \"unix\"")
	}

	return nil
}
