// Package config loads the tracker's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Uploads  UploadConfig   `yaml:"uploads"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type UploadConfig struct {
	// MaxBytes caps attachment size; zero disables the cap.
	MaxBytes int64 `yaml:"max_bytes"`
}

type AuthConfig struct {
	// BcryptCost of zero falls back to the library default.
	BcryptCost int `yaml:"bcrypt_cost"`
}

type LoggingConfig struct {
	// Env selects the zap preset: "production" or "development".
	Env string `yaml:"env"`
}

// Defaults returns the configuration used when no file overrides it.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "projects.db"},
		Uploads:  UploadConfig{MaxBytes: 32 << 20},
		Logging:  LoggingConfig{Env: "development"},
	}
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
