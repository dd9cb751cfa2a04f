// Package config loads the demo server/client bootstrap configuration.
// It is ambient stack only — it configures the listening port and log
// level of cmd/mirrorsyncd, never command semantics, which spec.md keeps
// entirely out of scope for configuration (§1).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level shape loaded from a YAML file.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the demo HTTP listener.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LoggingConfig configures telemetry.Init.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	JSONOutput  bool   `yaml:"json_output"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			JSONOutput: true,
		},
	}
}

// Load reads and parses a YAML config file, falling back to Default for
// any field the file leaves zero-valued.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
