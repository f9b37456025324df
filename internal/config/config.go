// Package config loads and validates the agent configuration.
//
// Configuration is a YAML file validated against an embedded CUE schema
// before anything else starts. Schema violations are reported with CUE's
// own error detail, which names the offending field.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Default cadences used when the config file omits the intervals.
const (
	DefaultSyncInterval = 5 * time.Minute
	DefaultPollInterval = 30 * time.Second
)

// Config is the validated agent configuration.
type Config struct {
	BackendURL string `yaml:"backend_url"`
	APIKey     string `yaml:"api_key"`

	SyncInterval time.Duration `yaml:"-"`
	PollInterval time.Duration `yaml:"-"`

	// DataDir holds the local database. Empty means the per-user default.
	DataDir string `yaml:"data_dir"`
}

// fileConfig is the raw YAML shape; intervals arrive as duration strings.
type fileConfig struct {
	BackendURL   string `yaml:"backend_url" json:"backend_url"`
	APIKey       string `yaml:"api_key" json:"api_key"`
	SyncInterval string `yaml:"sync_interval,omitempty" json:"sync_interval,omitempty"`
	PollInterval string `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`
	DataDir      string `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
}

// Load reads, validates and resolves the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML config bytes and resolves defaults.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	cfg := &Config{
		BackendURL:   raw.BackendURL,
		APIKey:       raw.APIKey,
		DataDir:      raw.DataDir,
		SyncInterval: DefaultSyncInterval,
		PollInterval: DefaultPollInterval,
	}

	// The schema already guarantees these parse.
	if raw.SyncInterval != "" {
		cfg.SyncInterval, _ = time.ParseDuration(raw.SyncInterval)
	}
	if raw.PollInterval != "" {
		cfg.PollInterval, _ = time.ParseDuration(raw.PollInterval)
	}

	return cfg, nil
}

// validate unifies the decoded config with the embedded schema and reports
// the first constraint violation.
func validate(raw fileConfig) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("config schema missing #Config: %w", err)
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DBPath resolves the SQLite database location: the configured data dir if
// set, otherwise a per-user application directory.
func (c *Config) DBPath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolving user config dir: %w", err)
		}
		dir = filepath.Join(base, "microdiag")
	}
	return filepath.Join(dir, "microdiag.db"), nil
}
