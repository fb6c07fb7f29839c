package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"recon/pkg/engine"
	"recon/pkg/report"
)

// Config holds all configuration for the recon CLI
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Script    ScriptConfig    `yaml:"script"`
}

// LogConfig selects zap level and encoding
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the run store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	DSN    string `yaml:"dsn"`
}

// ReconcileConfig tunes the reconciler
type ReconcileConfig struct {
	ConflictPolicy string `yaml:"conflict_policy"` // fold | review
}

// ScriptConfig holds remediation script defaults
type ScriptConfig struct {
	SafeMode   bool   `yaml:"safe_mode"`
	Operator   string `yaml:"operator"`
	DisabledOU string `yaml:"disabled_ou"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "recon.db",
		},
		Reconcile: ReconcileConfig{
			ConflictPolicy: string(engine.ConflictPolicyFold),
		},
		Script: ScriptConfig{
			SafeMode:   true,
			Operator:   "system",
			DisabledOU: report.DefaultDisabledOU,
		},
	}
}

// Load reads and parses the configuration file. Keys absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present; a missing YAML file is not an error.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CONFLICT_POLICY"); v != "" {
		cfg.Reconcile.ConflictPolicy = v
	}
	if v := os.Getenv("SCRIPT_SAFE_MODE"); v != "" {
		safe, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SCRIPT_SAFE_MODE: %w", err)
		}
		cfg.Script.SafeMode = safe
	}
	if v := os.Getenv("SCRIPT_OPERATOR"); v != "" {
		cfg.Script.Operator = v
	}
	if v := os.Getenv("SCRIPT_DISABLED_OU"); v != "" {
		cfg.Script.DisabledOU = v
	}

	return cfg, nil
}

// Validate rejects unknown drivers and conflict policies.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if _, err := engine.ParseConflictPolicy(c.Reconcile.ConflictPolicy); err != nil {
		return err
	}
	return nil
}

// Policy returns the configured conflict policy. Call Validate first.
func (c *Config) Policy() engine.ConflictPolicy {
	p, _ := engine.ParseConflictPolicy(c.Reconcile.ConflictPolicy)
	return p
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Database.Driver == "" {
		c.Database.Driver = d.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == d.Database.Driver {
		c.Database.DSN = d.Database.DSN
	}
	if c.Reconcile.ConflictPolicy == "" {
		c.Reconcile.ConflictPolicy = d.Reconcile.ConflictPolicy
	}
	if c.Script.Operator == "" {
		c.Script.Operator = d.Script.Operator
	}
	if c.Script.DisabledOU == "" {
		c.Script.DisabledOU = d.Script.DisabledOU
	}
}
