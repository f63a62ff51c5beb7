package commands

import (
	"fmt"

	"github.com/leapstack-labs/prefixsql/internal/queryfile"
	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/leapstack-labs/prefixsql/pkg/query"
	"github.com/leapstack-labs/prefixsql/pkg/rewrite"
	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var discover bool

	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Run a query file against the target database",
		Long: `Prefix a YAML query file and run it against the configured target.

Select queries print their rows; other statements print a confirmation.
When neither the file nor the configuration lists tables, the prefixed
tables of the target are discovered first so references to them in
expressions are prefixed too.`,
		Example: `  # Run a select against the default target
  prefixsql exec queries/recent_posts.yaml

  # Run against the prod environment as JSON
  prefixsql exec queries/recent_posts.yaml -t prod -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)

			f, err := queryfile.Load(args[0])
			if err != nil {
				return err
			}
			q, err := f.Query()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := cmdCtx.Connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := cmdCtx.RewriteOptions()
			if discover || (len(f.Tables) == 0 && len(cmdCtx.Cfg.Tables) == 0) {
				known, err := adapter.WithKnownTables(ctx, a)
				if err != nil {
					return err
				}
				opts = append(opts, known)
			}

			return runQuery(cmd, cmdCtx, a, q, opts)
		},
	}

	cmd.Flags().BoolVar(&discover, "discover", false, "Always discover prefixed tables on the target")
	return cmd
}

func runQuery(cmd *cobra.Command, c *CommandContext, a adapter.Adapter, q *query.Query, opts []rewrite.Option) error {
	ctx := cmd.Context()
	if q.Kind() != query.KindSelect {
		if err := adapter.Exec(ctx, a, q, opts...); err != nil {
			return err
		}
		c.Renderer.Status(c.Renderer.Styles().Success, "%s OK", q.Kind())
		return nil
	}

	rows, err := adapter.Select(ctx, a, q, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return c.Renderer.Rows(rows.Rows)
}
