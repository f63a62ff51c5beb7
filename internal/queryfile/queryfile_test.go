package queryfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantSQL  string
		wantArgs []any
		tables   []string
	}{
		{
			name: "select with everything",
			yaml: `
tables: [comments]
distinct: true
select:
  - articles.id
  - {field: COUNT(comments.id), as: total}
from: [articles]
joins:
  - {type: left, table: comments, as: c, on: ["c.article_id = articles.id"]}
where:
  - {sql: "articles.published = ?", args: [true]}
  - {field: articles.author_id, in: [1, 2]}
  - or:
      - {field: articles.views, op: ">", value: 100}
      - {sql: "articles.pinned = ?", args: [1]}
group: [articles.id]
having:
  - "COUNT(comments.id) > 1"
order:
  - {key: articles.created, dir: desc}
  - articles.id
limit: 10
offset: 5
`,
			wantSQL: "SELECT DISTINCT articles.id, COUNT(comments.id) AS total FROM articles " +
				"LEFT JOIN comments AS c ON c.article_id = articles.id " +
				"WHERE articles.published = ? AND articles.author_id IN (?, ?) " +
				"AND (articles.views > ? OR articles.pinned = ?) " +
				"GROUP BY articles.id HAVING COUNT(comments.id) > 1 " +
				"ORDER BY articles.created DESC, articles.id LIMIT 10 OFFSET 5",
			wantArgs: []any{true, 1, 2, 100, 1},
			tables:   []string{"comments", "articles"},
		},
		{
			name: "column comparisons and null",
			yaml: `
from: [{table: users, as: u}]
where:
  - {field: u.updated, op: ">=", ident: u.created}
  - {field: u.deleted, "null": true}
`,
			wantSQL: "SELECT * FROM users AS u WHERE u.updated >= u.created AND u.deleted IS NULL",
		},
		{
			name: "insert",
			yaml: `
insert:
  table: tags
  columns: [name, weight]
  values:
    - [go, 3]
    - [sql, 1]
`,
			wantSQL:  "INSERT INTO tags (name, weight) VALUES (?, ?), (?, ?)",
			wantArgs: []any{"go", 3, "sql", 1},
		},
		{
			name: "update keeps assignment order",
			yaml: `
update:
  table: tags
  set:
    weight: 5
    name: golang
  where:
    - {field: tags.name, value: go}
`,
			wantSQL:  "UPDATE tags SET weight = ?, name = ? WHERE tags.name = ?",
			wantArgs: []any{5, "golang", "go"},
		},
		{
			name: "delete",
			yaml: `
delete:
  table: sessions
  where: ["sessions.expired = 1"]
`,
			wantSQL: "DELETE FROM sessions WHERE sessions.expired = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			q, err := f.Query()
			require.NoError(t, err)

			sql, args, err := q.SQL(core.PlaceholderQuestion)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
			if tt.tables != nil {
				assert.Equal(t, tt.tables, q.TableNames())
			}
		})
	}
}

func TestQuerySubquery(t *testing.T) {
	f, err := Parse([]byte(`
select: [recent.id]
from:
  - as: recent
    query:
      select: [posts.id]
      from: [posts]
      order: [{key: posts.id, dir: desc}]
      limit: 5
`))
	require.NoError(t, err)
	q, err := f.Query()
	require.NoError(t, err)

	sql, _, err := q.SQL(core.PlaceholderQuestion)
	require.NoError(t, err)
	assert.Equal(t, "SELECT recent.id FROM (SELECT posts.id FROM posts ORDER BY posts.id DESC LIMIT 5) AS recent", sql)
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		parse   bool
	}{
		{
			name:    "two statements",
			yaml:    "insert: {table: a}\ndelete: {table: a}\n",
			wantErr: ErrMultipleStatements,
		},
		{
			name:    "empty condition",
			yaml:    "from: [a]\nwhere:\n  - {op: \"=\"}\n",
			wantErr: ErrEmptyCondition,
		},
		{
			name: "unknown join",
			yaml: "from: [a]\njoins: [{type: cross, table: b}]\n",
		},
		{
			name:  "set is not a mapping",
			yaml:  "update: {table: a, set: [x]}\n",
			parse: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if tt.parse {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, err = f.Query()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	require.NoError(t, os.WriteFile(path, []byte("from: [a]\n"), 0600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("from: {"), 0600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, bad)
}
