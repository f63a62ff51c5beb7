package commands

import (
	"github.com/leapstack-labs/prefixsql/internal/cli/output"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/spf13/cobra"
)

// CheckResult reports how the prefixer sees a snippet.
type CheckResult struct {
	Snippet           string `json:"snippet"`
	HasTableReference bool   `json:"has_table_reference"`
	IsPrefixed        bool   `json:"is_prefixed"`
	NeedsPrefix       bool   `json:"needs_prefix"`
	Prefixed          string `json:"prefixed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var tableClause bool

	cmd := &cobra.Command{
		Use:   "check <snippet>",
		Short: "Show how a SQL snippet would be prefixed",
		Long: `Classify a SQL snippet against the configured prefix and tables and show
the rewritten form.

By default the snippet is treated as an expression such as a select field
or a condition. With --table it is treated as a table name from a FROM,
JOIN, INSERT or UPDATE clause.`,
		Example: `  # Check a qualified field
  prefixsql check "articles.id" --prefix wp_ --tables articles

  # Check a table name
  prefixsql check '"articles"' --prefix wp_ --tables articles --dialect postgres --table`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			s, err := cmdCtx.Settings()
			if err != nil {
				return err
			}
			res, err := check(args[0], s, tableClause)
			if err != nil {
				return err
			}
			return printCheck(cmdCtx.Renderer, res)
		},
	}

	cmd.Flags().BoolVar(&tableClause, "table", false, "Treat the snippet as a table name")
	return cmd
}

func check(snippet string, s *prefix.Settings, tableClause bool) (CheckResult, error) {
	done, err := prefix.IsPrefixed(snippet, s, tableClause)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{
		Snippet:           snippet,
		HasTableReference: prefix.HasTableReference(snippet, s),
		IsPrefixed:        done,
		NeedsPrefix:       prefix.NeedsPrefix(snippet, s),
	}
	if tableClause {
		res.Prefixed = prefix.PrefixTableName(snippet, s, true)
	} else {
		res.Prefixed = prefix.PrefixFieldName(snippet, s)
	}
	return res, nil
}

func printCheck(r *output.Renderer, res CheckResult) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(res)
	}
	return r.Table([]string{"property", "value"}, [][]any{
		{"has_table_reference", res.HasTableReference},
		{"is_prefixed", res.IsPrefixed},
		{"needs_prefix", res.NeedsPrefix},
		{"prefixed", res.Prefixed},
	})
}
