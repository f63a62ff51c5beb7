package commands

import (
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	var prefixedOnly bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables of the target database",
		Long: `List the tables of the configured target with their raw names, i.e.
the names with the table prefix removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cmdCtx := NewCommandContext(cmd)

			a, err := cmdCtx.Connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			tables, err := a.ListTables(ctx)
			if err != nil {
				return err
			}

			var rows [][]any
			for _, t := range tables {
				if prefixedOnly && !t.Prefixed {
					continue
				}
				rows = append(rows, []any{t.Schema, t.Name, t.RawName, t.Prefixed})
			}
			return cmdCtx.Renderer.Table([]string{"schema", "name", "raw_name", "prefixed"}, rows)
		},
	}

	cmd.Flags().BoolVar(&prefixedOnly, "prefixed", false, "Only list tables carrying the prefix")
	return cmd
}
