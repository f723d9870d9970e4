package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// Config holds all configuration for the application.
type Config struct {
	LogFormat    string `validate:"oneof=text json"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	ScenarioPath string `validate:"required"`
}

// Defaults used when the environment does not set a value.
const (
	DefaultLogFormat    = "text"
	DefaultLogLevel     = "info"
	DefaultScenarioPath = "scenario.yaml"
)

// Load reads configuration from the environment, after loading a .env file if
// one exists in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		LogFormat:    valueOr(getenv("LOG_FORMAT"), DefaultLogFormat),
		LogLevel:     valueOr(getenv("LOG_LEVEL"), DefaultLogLevel),
		ScenarioPath: valueOr(getenv("SKIRMISH_SCENARIO"), DefaultScenarioPath),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validatorInstance.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
