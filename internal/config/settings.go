package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds process settings read from COURIER_* environment
// variables. Command-line flags override them.
type Settings struct {
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"warn"`
	NoColor   bool          `envconfig:"NO_COLOR" default:"false"`
	RateLimit float64       `envconfig:"RATE_LIMIT" default:"0"`
	Transport string        `envconfig:"TRANSPORT" default:"net"`
}

// LoadSettings reads settings from the environment.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("courier", &s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if s.Transport != "net" && s.Transport != "resty" {
		return nil, fmt.Errorf("failed to load settings: unknown transport %q", s.Transport)
	}
	return &s, nil
}

// DefaultSettings returns the settings used when the environment sets
// nothing.
func DefaultSettings() *Settings {
	return &Settings{
		Timeout:   30 * time.Second,
		LogLevel:  "warn",
		Transport: "net",
	}
}
