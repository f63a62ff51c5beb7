package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/spf13/cobra"
)

const shellPrompt = "prefixsql> "

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Check snippets interactively",
		Long: `Start an interactive prompt that checks each entered snippet against the
configured prefix and tables, like the check command.

Type .help for commands, .quit to exit.`,
		Example: `  prefixsql shell --prefix wp_ --tables articles,comments`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			s, err := cmdCtx.Settings()
			if err != nil {
				return err
			}
			sh := &shell{c: cmdCtx, settings: s}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          shellPrompt,
				HistoryFile:     historyFile(),
				AutoComplete:    sh.completer(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize shell: %w", err)
			}
			defer func() { _ = rl.Close() }()

			styles := cmdCtx.Renderer.Styles()
			cmdCtx.Renderer.Println(styles.Header.Render(fmt.Sprintf("prefixsql shell (prefix %q)", s.Prefix())))
			cmdCtx.Renderer.Println(styles.Muted.Render("Type .help for commands, .quit to exit"))

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if sh.handle(line) {
					return nil
				}
			}
		},
	}
}

// historyFile returns the shell history path, or "" when no cache
// directory is available.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "prefixsql")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}

type shell struct {
	c           *CommandContext
	settings    *prefix.Settings
	tableClause bool
}

// handle processes one input line and reports whether the shell should exit.
func (sh *shell) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	r := sh.c.Renderer
	styles := r.Styles()

	if strings.HasPrefix(line, ".") {
		switch strings.ToLower(strings.Fields(line)[0]) {
		case ".quit", ".exit":
			return true
		case ".help":
			r.Println(shellHelp)
		case ".tables":
			tables := sh.settings.Tables()
			if len(tables) == 0 {
				r.Println(styles.Muted.Render("no known tables"))
				break
			}
			for _, t := range tables {
				r.Printf("%s -> %s\n", t, prefix.PrefixTableName(t, sh.settings, true))
			}
		case ".table":
			sh.tableClause = !sh.tableClause
			mode := "expression"
			if sh.tableClause {
				mode = "table name"
			}
			r.Println(styles.Muted.Render("snippets are checked as " + mode))
		default:
			r.Status(styles.Error, "unknown command %s (type .help for commands)", line)
		}
		return false
	}

	res, err := check(line, sh.settings, sh.tableClause)
	if err != nil {
		r.Status(styles.Error, "error: %v", err)
		return false
	}
	switch {
	case res.NeedsPrefix || res.Prefixed != res.Snippet:
		r.Println(styles.Success.Render(res.Prefixed))
	case res.IsPrefixed:
		r.Println(styles.Muted.Render(res.Prefixed + "  (already prefixed)"))
	default:
		r.Println(styles.Muted.Render(res.Prefixed + "  (no known table)"))
	}
	return false
}

func (sh *shell) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, t := range sh.settings.Tables() {
		items = append(items, readline.PcItem(t))
	}
	for _, c := range []string{".help", ".tables", ".table", ".quit", ".exit"} {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

const shellHelp = `Commands:
  .help     Show this help message
  .tables   List known tables and their prefixed names
  .table    Toggle checking snippets as table names
  .quit     Exit the shell

Any other line is checked and printed with the prefix applied.`
