package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Values come from an optional
// YAML config file; environment variables override file values.
type Config struct {
	// EventLogPath is the log to replay. Construction fails without one.
	EventLogPath string `yaml:"event_log_path" env:"EVENT_LOG_PATH"`

	// Renderer is the external graph renderer binary
	Renderer string `yaml:"renderer" env:"RENDERER"`

	// OutputDir receives generated visualization files; empty means the
	// system temp directory
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`

	// Format is the default visualization image format
	Format string `yaml:"format" env:"FORMAT"`

	// ServerPort is the inspection API port
	ServerPort string `yaml:"server_port" env:"SERVER_PORT"`

	// DatabaseURL enables the snapshot archive when set
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

// Load reads the YAML config file at path (skipped when path is empty) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	// Defaults apply only after both layers, so an env tag default cannot
	// clobber a value set in the file.
	if cfg.Renderer == "" {
		cfg.Renderer = "dot"
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	return cfg, nil
}
