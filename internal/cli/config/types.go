// Package config provides configuration management for the prefixsql CLI.
//
// The shared target type lives in pkg/core and is re-exported here via a
// type alias for convenience.
package config

import (
	"github.com/leapstack-labs/prefixsql/internal/flash"
	"github.com/leapstack-labs/prefixsql/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// ServerConfig holds configuration for the flash web server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
}

// Config holds all CLI configuration options.
type Config struct {
	Prefix       string               `koanf:"prefix"`
	Tables       []string             `koanf:"tables"`
	Strict       bool                 `koanf:"strict"`
	Dialect      string               `koanf:"dialect"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Flash        flash.Config         `koanf:"flash"`
	Server       ServerConfig         `koanf:"server"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Prefix string        `koanf:"prefix"`
	Target *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultEnv     = "dev"
	DefaultOutput  = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultDialect = "ansi"
	DefaultPort    = 8080
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"prefixsql.yaml", "prefixsql.yml"}

// TablePrefix returns the prefix in effect: the target's when set,
// otherwise the project-level one.
func (c *Config) TablePrefix() string {
	if c.Target != nil && c.Target.Prefix != "" {
		return c.Target.Prefix
	}
	return c.Prefix
}
