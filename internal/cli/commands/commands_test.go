package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/prefixsql/internal/cli/config"
	"github.com/leapstack-labs/prefixsql/internal/cli/output"
	"github.com/leapstack-labs/prefixsql/internal/testutil"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, cfg *config.Config) (*CommandContext, *testutil.Buffer) {
	t.Helper()
	if cfg.Dialect == "" {
		cfg.Dialect = config.DefaultDialect
	}
	out := &testutil.Buffer{}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRendererWithTTY(out, &bytes.Buffer{}, true, output.ModeText),
	}, out
}

func writeQuery(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCheck(t *testing.T) {
	s, err := prefix.New(prefix.WithPrefix("wp_"), prefix.WithTables("articles"), prefix.WithQuoteStrings(`"`, `"`))
	require.NoError(t, err)

	tests := []struct {
		name        string
		snippet     string
		tableClause bool
		want        CheckResult
	}{
		{
			name:    "raw field",
			snippet: "articles.id",
			want: CheckResult{
				Snippet: "articles.id", HasTableReference: true, NeedsPrefix: true, Prefixed: "wp_articles.id",
			},
		},
		{
			name:    "prefixed field",
			snippet: "wp_articles.id",
			want: CheckResult{
				Snippet: "wp_articles.id", HasTableReference: true, IsPrefixed: true, Prefixed: "wp_articles.id",
			},
		},
		{
			name:        "quoted table",
			snippet:     `"articles"`,
			tableClause: true,
			want: CheckResult{
				Snippet: `"articles"`, HasTableReference: true, NeedsPrefix: true, Prefixed: `"wp_articles"`,
			},
		},
		{
			name:    "unknown table",
			snippet: "users.id",
			want:    CheckResult{Snippet: "users.id", Prefixed: "users.id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := check(tt.snippet, s, tt.tableClause)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		paths = append(paths, writeQuery(t, dir, name, "select: [posts.id]\nfrom: posts\n"))
	}

	c, _ := testContext(t, &config.Config{Prefix: "app_", Tables: []string{"posts"}})
	results, err := renderFiles(c, paths)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, paths[i], res.File)
		assert.Equal(t, "SELECT app_posts.id FROM app_posts", res.SQL)
	}
}

func TestRenderFilesError(t *testing.T) {
	dir := t.TempDir()
	good := writeQuery(t, dir, "good.yaml", "from: [posts]\n")
	bad := writeQuery(t, dir, "bad.yaml", "from: [posts]\ninsert:\n  table: posts\n")

	c, _ := testContext(t, &config.Config{Prefix: "app_"})
	_, err := renderFiles(c, []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestPrintRenderedMarkdown(t *testing.T) {
	out := &bytes.Buffer{}
	r := output.NewRendererWithTTY(out, &bytes.Buffer{}, false, output.ModeAuto)

	require.NoError(t, printRendered(r, []Rendered{{File: "q.yaml", SQL: "SELECT 1", Args: []any{3}}}))
	assert.Equal(t, "### q.yaml\n\n```sql\nSELECT 1;\n-- args: [3]\n```\n\n", out.String())
}

func TestWatchFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeQuery(t, dir, "q.yaml", "from: [posts]\n")

	c, out := testContext(t, &config.Config{Prefix: "app_", Tables: []string{"posts"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchFiles(ctx, c, []string{path}) }()

	// The watcher registers asynchronously; keep touching the file until a
	// render shows up.
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("from: [comments]\ntables: [comments]\n"), 0o600)
		return bytes.Contains([]byte(out.String()), []byte("SELECT * FROM app_comments"))
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFiles did not stop after cancel")
	}
}

func TestShellHandle(t *testing.T) {
	s, err := prefix.New(prefix.WithPrefix("wp_"), prefix.WithTables("articles"), prefix.WithQuoteStrings(`"`, `"`))
	require.NoError(t, err)

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	c := &CommandContext{
		Cfg:      &config.Config{},
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRendererWithTTY(out, errOut, false, output.ModeText),
	}
	sh := &shell{c: c, settings: s}

	assert.False(t, sh.handle("articles.id"))
	assert.False(t, sh.handle("wp_articles.id"))
	assert.False(t, sh.handle("users.id"))
	assert.False(t, sh.handle("   "))
	assert.False(t, sh.handle(".table"))
	assert.False(t, sh.handle(`"articles"`))
	assert.False(t, sh.handle(".tables"))
	assert.False(t, sh.handle(".nope"))
	assert.True(t, sh.handle(".quit"))

	assert.Equal(t, "wp_articles.id\n"+
		"wp_articles.id  (already prefixed)\n"+
		"users.id  (no known table)\n"+
		"snippets are checked as table name\n"+
		`"wp_articles"`+"\n"+
		"articles -> wp_articles\n", out.String())
	assert.Contains(t, errOut.String(), "unknown command .nope")
}
