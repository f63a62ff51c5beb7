package adapter_test

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/leapstack-labs/prefixsql/pkg/query"
	"github.com/leapstack-labs/prefixsql/pkg/rewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite" // sqlite driver
)

// memAdapter is an in-memory sqlite adapter for tests.
type memAdapter struct {
	adapter.BaseSQLAdapter
}

func (a *memAdapter) Connect(context.Context, adapter.Config) error { return nil }

func (a *memAdapter) ListTables(ctx context.Context) ([]adapter.TableInfo, error) {
	return a.ListTablesCommon(ctx,
		`SELECT 'main', name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
}

func newMemAdapter(t *testing.T, tablePrefix string) *memAdapter {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	d, ok := dialect.Get("sqlite")
	require.True(t, ok)
	return &memAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{
		DB:         db,
		Cfg:        core.AdapterConfig{Type: "sqlite", Prefix: tablePrefix},
		SQLDialect: d,
	}}
}

func TestCompile(t *testing.T) {
	pg, ok := dialect.Get("postgres")
	require.True(t, ok)

	conn := core.StaticConnection{TablePrefix: "app_", QuoteOpen: `"`, QuoteClose: `"`}
	q := query.New().Select("articles.id").From("articles").Where("articles.views > ?", 10)

	sql, args, err := adapter.Compile(q, conn, pg)
	require.NoError(t, err)
	assert.Equal(t, "SELECT app_articles.id FROM app_articles WHERE app_articles.views > $1", sql)
	assert.Equal(t, []any{10}, args)

	_, _, err = adapter.Compile(q, conn, nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)

	bad := core.StaticConnection{TablePrefix: "app_", QuoteOpen: `"`}
	_, _, err = adapter.Compile(query.New().From("articles"), bad, pg)
	assert.ErrorIs(t, err, prefix.ErrInvalidQuoteStrings)
}

func TestExecAndSelect(t *testing.T) {
	ctx := context.Background()
	a := newMemAdapter(t, "wp_")

	require.NoError(t, a.Exec(ctx, `CREATE TABLE wp_posts (id INTEGER PRIMARY KEY, title TEXT, author_id INTEGER)`))
	require.NoError(t, a.Exec(ctx, `CREATE TABLE wp_users (id INTEGER PRIMARY KEY, name TEXT)`))

	require.NoError(t, adapter.Exec(ctx, a, query.New().InsertInto("users", "id", "name").Values(1, "ada")))
	require.NoError(t, adapter.Exec(ctx, a, query.New().InsertInto("posts", "title", "author_id").
		Values("first", 1).Values("second", 1)))
	require.NoError(t, adapter.Exec(ctx, a, query.New().Update("posts").Set("title", "edited").
		Where("posts.title = ?", "second")))

	rows, err := adapter.Select(ctx, a, query.New().
		Select("posts.title", "users.name").
		From("posts").
		InnerJoin("users", "", "users.id = posts.author_id").
		OrderBy("posts.id", "ASC"))
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var got [][2]string
	for rows.Next() {
		var title, name string
		require.NoError(t, rows.Scan(&title, &name))
		got = append(got, [2]string{title, name})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][2]string{{"first", "ada"}, {"edited", "ada"}}, got)
}

func TestKnownTables(t *testing.T) {
	ctx := context.Background()
	a := newMemAdapter(t, "wp_")

	require.NoError(t, a.Exec(ctx, `CREATE TABLE wp_posts (id INTEGER)`))
	require.NoError(t, a.Exec(ctx, `CREATE TABLE wp_tags (post_id INTEGER, name TEXT)`))
	require.NoError(t, a.Exec(ctx, `CREATE TABLE other_posts (id INTEGER)`))
	require.NoError(t, a.Exec(ctx, `CREATE TABLE wp_goose_db_version (id INTEGER)`))

	names, err := adapter.KnownTables(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "tags"}, names)

	// tags is only referenced in a condition, so it must come from discovery.
	opt, err := adapter.WithKnownTables(ctx, a)
	require.NoError(t, err)
	sql, _, err := adapter.Compile(query.New().From("posts").Where("tags.name = ?", "go"), a, a.Dialect(), opt)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM wp_posts WHERE wp_tags.name = ?", sql)

	unprefixed := newMemAdapter(t, "")
	require.NoError(t, unprefixed.Exec(ctx, `CREATE TABLE posts (id INTEGER)`))
	names, err = adapter.KnownTables(ctx, unprefixed)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts"}, names)
}

func TestSelectCompileError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	d, _ := dialect.Get("sqlite")
	a := &memAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{
		DB:         db,
		Cfg:        core.AdapterConfig{Prefix: "wp_"},
		SQLDialect: d,
	}}

	_, err = adapter.Select(context.Background(), a, query.New().From("posts").Where("id = ?", 1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile select")

	err = adapter.Exec(context.Background(), a, query.New().From("posts"),
		rewrite.WithSettings(prefix.WithTables("bad name")))
	assert.ErrorIs(t, err, prefix.ErrInvalidTableName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	a := newMemAdapter(t, "wp_")

	fsys := fstest.MapFS{
		"migrations/00001_posts.sql": {Data: []byte(`-- +goose Up
CREATE TABLE wp_posts (id INTEGER PRIMARY KEY, title TEXT);

-- +goose Down
DROP TABLE wp_posts;
`)},
		"migrations/00002_tags.sql": {Data: []byte(`-- +goose Up
CREATE TABLE wp_tags (post_id INTEGER, name TEXT);

-- +goose Down
DROP TABLE wp_tags;
`)},
	}

	version, err := adapter.Migrate(ctx, a, fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	tables, err := a.ListTables(ctx)
	require.NoError(t, err)
	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Contains(t, names, adapter.VersionTable("wp_"))
	assert.Contains(t, names, "wp_posts")

	// Re-running is a no-op.
	version, err = adapter.Migrate(ctx, a, fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestMigrateErrors(t *testing.T) {
	ctx := context.Background()

	_, err := adapter.Migrate(ctx, &memAdapter{}, fstest.MapFS{}, "migrations")
	assert.ErrorContains(t, err, "database connection not established")

	a := newMemAdapter(t, "")
	duck, _ := dialect.Get("duckdb")
	a.SQLDialect = duck
	_, err = adapter.Migrate(ctx, a, fstest.MapFS{}, "migrations")
	assert.ErrorContains(t, err, "not supported")
}
