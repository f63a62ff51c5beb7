package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE wp_users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE wp_users (id INT)",
		},
		{
			name:    "exec with args",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM wp_users").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			sql:  "DELETE FROM wp_users WHERE id = ?",
			args: []any{7},
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				base.DB = db
				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				defer func() {
					assert.NoError(t, mock.ExpectationsWereMet())
				}()
			}

			err := base.Exec(context.Background(), tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	base := &BaseSQLAdapter{}
	_, err := base.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection not established")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	base.DB = db

	mock.ExpectQuery("SELECT id FROM wp_users").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rows, err := base.Query(context.Background(), "SELECT id FROM wp_users WHERE id = ?", 1)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	var id int
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, 1, id)
	require.NoError(t, rows.Err())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_Connection(t *testing.T) {
	d, ok := dialect.Get("mysql")
	require.True(t, ok)

	base := &BaseSQLAdapter{
		Cfg:        core.AdapterConfig{Prefix: "wp_"},
		SQLDialect: d,
	}
	assert.Equal(t, "wp_", base.Prefix())
	open, closeQuote := base.QuoteStrings()
	assert.Equal(t, "`", open)
	assert.Equal(t, "`", closeQuote)
	assert.Same(t, d, base.Dialect())
	assert.False(t, base.IsConnected())
	assert.Nil(t, base.Conn())

	empty := &BaseSQLAdapter{}
	open, closeQuote = empty.QuoteStrings()
	assert.Empty(t, open)
	assert.Empty(t, closeQuote)
}

func TestBaseSQLAdapter_ListTablesCommon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLAdapter{DB: db, Cfg: core.AdapterConfig{Prefix: "wp_"}}

	mock.ExpectQuery("SELECT table_schema, table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name"}).
			AddRow("public", "wp_posts").
			AddRow("public", "users").
			AddRow("public", "wp_"))

	tables, err := base.ListTablesCommon(context.Background(),
		"SELECT table_schema, table_name FROM information_schema.tables WHERE table_schema = $1", "public")
	require.NoError(t, err)
	assert.Equal(t, []core.TableInfo{
		{Schema: "public", Name: "wp_posts", RawName: "posts", Prefixed: true},
		{Schema: "public", Name: "users", RawName: "users", Prefixed: false},
		{Schema: "public", Name: "wp_", RawName: "wp_", Prefixed: false},
	}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_ListTablesErrors(t *testing.T) {
	_, err := (&BaseSQLAdapter{}).ListTablesCommon(context.Background(), "SELECT 1")
	require.Error(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	bad := &BaseSQLAdapter{DB: db, Cfg: core.AdapterConfig{Prefix: "bad prefix"}}
	_, err = bad.ListTablesCommon(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "invalid connection prefix")

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)
	base := &BaseSQLAdapter{DB: db}
	_, err = base.ListTablesCommon(context.Background(), "SELECT name FROM tables")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDecodeParams(t *testing.T) {
	type params struct {
		Pragmas map[string]string `mapstructure:"pragmas"`
		Timeout int               `mapstructure:"timeout"`
	}

	var p params
	require.NoError(t, DecodeParams(nil, &p))
	assert.Equal(t, params{}, p)

	require.NoError(t, DecodeParams(map[string]any{
		"pragmas": map[string]any{"journal_mode": "wal", "cache_size": 2000},
		"timeout": "500",
	}, &p))
	assert.Equal(t, params{
		Pragmas: map[string]string{"journal_mode": "wal", "cache_size": "2000"},
		Timeout: 500,
	}, p)

	err := DecodeParams(map[string]any{"unknown": true}, &p)
	assert.ErrorContains(t, err, "invalid adapter params")
}
