package commands

import (
	"os"

	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <dir>",
		Short: "Apply SQL migrations to the target database",
		Long: `Apply goose SQL migrations from a directory to the configured target.

Applied versions are tracked in <prefix>goose_db_version, so several
prefixed installations can share one database.`,
		Example: `  prefixsql migrate migrations --prefix wp_`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)

			a, err := cmdCtx.Connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			version, err := adapter.Migrate(ctx, a, os.DirFS(args[0]), ".")
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Printf("%s is at version %d\n", adapter.VersionTable(a.Prefix()), version)
			return nil
		},
	}
}
