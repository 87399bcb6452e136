// Package config provides run configuration for the warehouse engine.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingCRMDir           = errors.New("sources.crm_dir is required")
	ErrMissingERPDir           = errors.New("sources.erp_dir is required")
	ErrMissingDatabasePath     = errors.New("database.path is required")
	ErrInvalidPort             = errors.New("server.port must be between 1 and 65535")
	ErrInvalidMalformedKeyMode = errors.New("cleansing.malformed_key_policy must be 'drop' or 'keep'")
	ErrInvalidLogLevel         = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config is the complete engine configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Cleansing CleansingConfig `yaml:"cleansing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourcesConfig points at the staged flat-file extracts.
type SourcesConfig struct {
	CRMDir string `yaml:"crm_dir"`
	ERPDir string `yaml:"erp_dir"`
}

// DatabaseConfig locates the warehouse database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CleansingConfig holds transformation policies.
type CleansingConfig struct {
	// MalformedKeyPolicy: "drop" excludes undersized product keys,
	// "keep" emits degenerate rows for the validator to flag.
	MalformedKeyPolicy string `yaml:"malformed_key_policy"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			CRMDir: "datasets/source_crm",
			ERPDir: "datasets/source_erp",
		},
		Database: DatabaseConfig{Path: "warehouse.db"},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Cleansing: CleansingConfig{MalformedKeyPolicy: "drop"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Sources.CRMDir == "" {
		return ErrMissingCRMDir
	}
	if c.Sources.ERPDir == "" {
		return ErrMissingERPDir
	}
	if c.Database.Path == "" {
		return ErrMissingDatabasePath
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	switch c.Cleansing.MalformedKeyPolicy {
	case "drop", "keep":
	default:
		return ErrInvalidMalformedKeyMode
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}
