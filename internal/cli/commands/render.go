package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/prefixsql/internal/cli/output"
	"github.com/leapstack-labs/prefixsql/internal/queryfile"
	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Rendered is the output of rendering one query file.
type Rendered struct {
	File string `json:"file"`
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render query files to prefixed SQL",
		Long: `Render YAML query files to SQL with the configured table prefix applied.

No database connection is needed: known tables come from the query itself,
its "tables" list and the configured tables.

Output adapts to environment:
  - Terminal: Plain SQL with its arguments
  - Piped/Scripted: Markdown with code blocks`,
		Example: `  # Render a query with the prefix from prefixsql.yaml
  prefixsql render queries/recent_posts.yaml

  # Render with an explicit prefix and dialect
  prefixsql render queries/*.yaml --prefix wp_ --dialect postgres

  # Re-render whenever a file changes
  prefixsql render queries/recent_posts.yaml --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			results, err := renderFiles(cmdCtx, args)
			if err != nil {
				return err
			}
			if err := printRendered(cmdCtx.Renderer, results); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchFiles(cmd.Context(), cmdCtx, args)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-render files when they change")
	return cmd
}

// renderFile loads one query file and compiles it with the prefix applied.
func renderFile(c *CommandContext, path string) (Rendered, error) {
	f, err := queryfile.Load(path)
	if err != nil {
		return Rendered{}, err
	}
	q, err := f.Query()
	if err != nil {
		return Rendered{}, fmt.Errorf("%s: %w", path, err)
	}

	conn, d, err := c.Connection()
	if err != nil {
		return Rendered{}, err
	}
	sql, args, err := adapter.Compile(q, conn, d, c.RewriteOptions()...)
	if err != nil {
		return Rendered{}, fmt.Errorf("%s: %w", path, err)
	}
	return Rendered{File: path, SQL: sql, Args: args}, nil
}

// renderFiles renders paths concurrently, keeping their order.
func renderFiles(c *CommandContext, paths []string) ([]Rendered, error) {
	results := make([]Rendered, len(paths))
	var eg errgroup.Group
	eg.SetLimit(8)
	for i, path := range paths {
		eg.Go(func() error {
			r, err := renderFile(c, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printRendered(r *output.Renderer, results []Rendered) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(results)
	}
	for _, res := range results {
		args := ""
		if len(res.Args) > 0 {
			args = fmt.Sprintf("-- args: %v\n", res.Args)
		}
		if r.Mode() == output.ModeMarkdown {
			_, _ = fmt.Fprintf(r.Out, "### %s\n\n```sql\n%s;\n%s```\n\n", res.File, res.SQL, args)
			continue
		}
		_, _ = fmt.Fprintf(r.Out, "-- %s\n%s;\n%s", res.File, res.SQL, args)
	}
	return nil
}

// watchFiles re-renders a file after it changes until ctx is done.
func watchFiles(ctx context.Context, c *CommandContext, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	// Watch directories so editors that replace files are still seen.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	c.Logger.Info("watching query files", "files", len(paths))

	pending := make(map[string]bool)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			path, ok := watched[abs]
			if !ok {
				continue
			}
			pending[path] = true
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			for path := range pending {
				res, err := renderFile(c, path)
				if err != nil {
					// Keep watching: the file may be mid-edit.
					c.Logger.Error("render failed", "file", path, "error", err)
					_, _ = fmt.Fprintf(c.Renderer.ErrOut, "error: %v\n", err)
					continue
				}
				if err := printRendered(c.Renderer, []Rendered{res}); err != nil {
					return err
				}
			}
			clear(pending)

		case err := <-watcher.Errors:
			c.Logger.Error("watcher error", "error", err)
		}
	}
}
