// Package config loads and validates the installer configuration file.
//
// The configuration is a flat YAML bundle describing the target environment,
// the source directories plugins install from, backup settings, and the
// telemetry stack. Structural validation uses go-playground/validator tags
// plus a handful of cross-field checks.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kitstrap/kitstrap/pkg/backup"
	"github.com/kitstrap/kitstrap/pkg/telemetry"
)

// Config is the top-level installer configuration.
type Config struct {
	// TargetDir is the root of the environment being installed into.
	TargetDir string `yaml:"target_dir" validate:"required"`

	// ScriptsDir holds the installable scripts.
	ScriptsDir string `yaml:"scripts_dir"`

	// TemplatesDir holds the installable templates.
	TemplatesDir string `yaml:"templates_dir"`

	// ProjectRoot is the enclosing project directory, when known.
	ProjectRoot string `yaml:"project_root"`

	// FrameworkRoot is the framework source checkout for source installs.
	FrameworkRoot string `yaml:"framework_root"`

	// DryRun makes plugins report without writing.
	DryRun bool `yaml:"dry_run"`

	// Exclude lists plugin names to skip during install.
	Exclude []string `yaml:"exclude"`

	// Backup configures the snapshot collaborator.
	Backup BackupConfig `yaml:"backup"`

	// StatePath is the SQLite install-history database path. Empty
	// disables history recording.
	StatePath string `yaml:"state_path"`

	// PolicyPaths lists Rego policy files gating the install.
	PolicyPaths []string `yaml:"policy_paths"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry *telemetry.Config `yaml:"telemetry"`

	// Metadata carries free-form plugin extension values.
	Metadata map[string]string `yaml:"metadata"`
}

// BackupConfig configures snapshot creation and restore.
type BackupConfig struct {
	// Enabled controls whether a snapshot is taken before installing.
	Enabled bool `yaml:"enabled"`

	// Dir is where snapshots are stored.
	Dir string `yaml:"dir"`

	// Directories is the set of top-level target directories captured and
	// restored. Empty means the conventional default set.
	Directories []string `yaml:"directories"`
}

// Default returns the default configuration. TargetDir is deliberately left
// empty; it has no sensible default and Validate rejects its absence.
func Default() *Config {
	return &Config{
		Backup: BackupConfig{
			Enabled:     true,
			Dir:         ".kitstrap/backups",
			Directories: backup.DefaultDirectories,
		},
		Telemetry: telemetry.DefaultConfig(),
		Metadata:  make(map[string]string),
	}
}

// Load reads the YAML configuration at path, applies it over the defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural tags and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Backup.Enabled && c.Backup.Dir == "" {
		return fmt.Errorf("invalid configuration: backup.dir is required when backups are enabled")
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("invalid telemetry configuration: %w", err)
		}
	}

	return nil
}
