package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Zero values get defaults applied by
// New; the two ambiguity knobs (date order, numeric coercion) default to
// the permissive behavior of the original frontend.
type Config struct {
	// Port is the HTTP server port. Default: 8000
	Port int `yaml:"port"`

	// Title is the document title. Default: "Untitled Spreadsheet"
	Title string `yaml:"title"`

	// Rows and Columns set the grid size. Defaults: 100 x 26.
	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`

	// DateOrder resolves ambiguous numeric dates: "mdy" (default) or "dmy".
	DateOrder string `yaml:"date_order"`

	// StrictNumeric excludes text-that-parses-as-number from formula
	// ranges. Default: false (lenient).
	StrictNumeric bool `yaml:"strict_numeric"`

	// GinMode sets the gin framework mode: "debug", "release" or "test".
	GinMode string `yaml:"gin_mode"`
}

// LoadConfig reads a YAML config file. A missing path returns the zero
// Config so the caller can rely entirely on defaults and env overrides.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Title == "" {
		cfg.Title = "Untitled Spreadsheet"
	}
	if cfg.Rows == 0 {
		cfg.Rows = 100
	}
	if cfg.Columns == 0 {
		cfg.Columns = 26
	}
	if cfg.DateOrder == "" {
		cfg.DateOrder = "mdy"
	}
	return cfg
}
