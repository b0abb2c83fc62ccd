package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses the process environment into cfg, a pointer to a struct using
// `env` / `envDefault` tags.
func Load(cfg any) error {
	return LoadFrom(cfg, nil)
}

// LoadFrom parses the given environment map into cfg instead of the process
// environment. A nil map falls back to os.Environ. Tests use it to avoid
// mutating global state.
func LoadFrom(cfg any, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
