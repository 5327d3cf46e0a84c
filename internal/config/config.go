package config

import (
	"time"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/aider"
)

// Config holds all application configuration.
type Config struct {
	Log     LogConfig      `mapstructure:"log"`
	Aider   AiderConfig    `mapstructure:"aider"`
	Ledger  LedgerConfig   `mapstructure:"ledger"`
	Serve   ServeConfig    `mapstructure:"serve"`
	Options map[string]any `mapstructure:"options"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AiderConfig configures how the aider executable is run.
type AiderConfig struct {
	// Path is the executable, possibly with leading arguments ("uvx aider").
	Path    string `mapstructure:"path"`
	Timeout string `mapstructure:"timeout"`
	WorkDir string `mapstructure:"work_dir"`
	// EnvFile is a dotenv file whose KEY=value lines reach aider as AIDER_KEY.
	EnvFile string `mapstructure:"env_file"`
	// ConfigFile is passed to aider as --config.
	ConfigFile   string `mapstructure:"config_file"`
	Validate     bool   `mapstructure:"validate"`
	StrictModels bool   `mapstructure:"strict_models"`
}

// TimeoutDuration parses Timeout. An empty value means no limit.
func (c AiderConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

// LedgerConfig configures task ledger persistence.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
	// Backend is json or sqlite; empty picks by file extension.
	Backend string `mapstructure:"backend"`
}

// ServeConfig configures the read-only HTTP API.
type ServeConfig struct {
	Addr        string   `mapstructure:"addr"`
	Watch       bool     `mapstructure:"watch"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AiderOptions builds aider options from the defaults plus the options
// section, then each override layer in order.
func (c *Config) AiderOptions(overrides ...map[string]any) (*aider.Options, error) {
	layers := append([]map[string]any{c.Options}, overrides...)
	return aider.NewOptionsFrom(layers...)
}
