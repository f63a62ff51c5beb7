package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := prefix.New(prefix.WithPrefix(c.TablePrefix()), prefix.WithTables(c.Tables...)); err != nil {
		return fmt.Errorf("invalid prefix settings: %w", err)
	}
	if _, ok := dialect.Get(c.Dialect); !ok {
		return fmt.Errorf("unknown dialect %q\nAvailable dialects: %v", c.Dialect, dialect.List())
	}
	switch c.OutputFormat {
	case "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("unknown output format %q", c.OutputFormat)
	}
	if c.Flash.Stacking.Limit < 0 {
		return fmt.Errorf("flash.stacking.limit must not be negative")
	}
	return nil
}

// ValidateTarget checks the target configuration. Only registered adapters
// are accepted; an empty target type means no database is configured.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required\nHint: set target.type in prefixsql.yaml")
	}
	t.Type = strings.ToLower(t.Type)
	if !adapter.Registered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.Types()}
	}
	return nil
}
