// Package config loads engine settings from TRANSFORMER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Prefix is prepended to every environment variable name.
const Prefix = "TRANSFORMER_"

// Config holds engine settings.
type Config struct {
	// Environment selects the logger flavor: "production" or anything else.
	Environment string `env:"ENV" envDefault:"development" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// DateFormat is the default format of date and datetime casters.
	DateFormat string `env:"DATE_FORMAT" envDefault:"Y-m-d H:i:s" validate:"required"`
	// IdentityField is the model field receiving a payload's remote identifier.
	IdentityField string `env:"MODEL_ID_FIELD" envDefault:"remote_id" validate:"required"`
	// MaxDepth bounds chains of newly created related records.
	MaxDepth int `env:"MAX_DEPTH" envDefault:"32" validate:"min=1"`
	// TransactionAttempts is the default attempt count of atomic dispatches.
	TransactionAttempts int `env:"TRANSACTION_ATTEMPTS" envDefault:"1" validate:"min=1,max=100"`

	// DBPath is the SQLite database used by the CLI.
	DBPath string `env:"DB_PATH" envDefault:"transformer.db" validate:"required"`
}

// IsProduction reports whether the production environment is selected.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ErrInvalidConfig is returned when a loaded setting is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Field(), e.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
