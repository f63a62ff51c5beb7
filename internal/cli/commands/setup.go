// Package commands implements the prefixsql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/prefixsql/internal/cli/config"
	"github.com/leapstack-labs/prefixsql/internal/cli/output"
	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/leapstack-labs/prefixsql/pkg/rewrite"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// PrefixOptions returns the prefix settings configured beyond the
// connection: registered tables and strictness.
func (c *CommandContext) PrefixOptions() []prefix.Option {
	return []prefix.Option{prefix.WithTables(c.Cfg.Tables...), prefix.WithStrict(c.Cfg.Strict)}
}

// RewriteOptions returns the rewriter options for the configuration.
func (c *CommandContext) RewriteOptions() []rewrite.Option {
	return []rewrite.Option{
		rewrite.WithLogger(c.Logger),
		rewrite.WithSettings(c.PrefixOptions()...),
	}
}

// Dialect returns the configured dialect.
func (c *CommandContext) Dialect() (*dialect.Dialect, error) {
	d, ok := dialect.Get(c.Cfg.Dialect)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", c.Cfg.Dialect)
	}
	return d, nil
}

// Connection returns the offline connection used to render queries: the
// configured prefix with the quotes of the configured dialect.
func (c *CommandContext) Connection() (core.StaticConnection, *dialect.Dialect, error) {
	d, err := c.Dialect()
	if err != nil {
		return core.StaticConnection{}, nil, err
	}
	open, closeQuote := d.QuoteStrings()
	return core.StaticConnection{TablePrefix: c.Cfg.TablePrefix(), QuoteOpen: open, QuoteClose: closeQuote}, d, nil
}

// Settings builds the prefix settings for a snippet check.
func (c *CommandContext) Settings() (*prefix.Settings, error) {
	conn, _, err := c.Connection()
	if err != nil {
		return nil, err
	}
	open, closeQuote := conn.QuoteStrings()
	opts := append([]prefix.Option{
		prefix.WithPrefix(conn.Prefix()),
		prefix.WithQuoteStrings(open, closeQuote),
	}, c.PrefixOptions()...)
	return prefix.New(opts...)
}

// Connect opens the configured target. The caller closes the adapter.
func (c *CommandContext) Connect(ctx context.Context) (adapter.Adapter, error) {
	if err := config.ValidateTarget(c.Cfg.Target); err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}

	cfg := c.Cfg.Target.AdapterConfig()
	cfg.Prefix = c.Cfg.TablePrefix()

	a, err := adapter.NewAdapter(cfg, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return a, nil
}
