package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query, Prefix and QuoteStrings implementations.
type BaseSQLAdapter struct {
	DB         *sql.DB
	Cfg        core.AdapterConfig
	Logger     *slog.Logger
	SQLDialect *dialect.Dialect
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Conn returns the underlying database handle.
func (b *BaseSQLAdapter) Conn() *sql.DB {
	return b.DB
}

// Prefix returns the table prefix of the connection.
func (b *BaseSQLAdapter) Prefix() string {
	return b.Cfg.Prefix
}

// QuoteStrings returns the identifier quote pair of the adapter's dialect.
func (b *BaseSQLAdapter) QuoteStrings() (string, string) {
	if b.SQLDialect == nil {
		return "", ""
	}
	return b.SQLDialect.QuoteStrings()
}

// Dialect returns the adapter's dialect.
func (b *BaseSQLAdapter) Dialect() *dialect.Dialect {
	return b.SQLDialect
}

// ListTablesCommon runs a query returning (schema, name) rows and describes
// each table relative to the connection prefix.
// This can be called by concrete adapters to avoid code duplication.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, query string, args ...any) ([]core.TableInfo, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	settings, err := prefix.New(prefix.WithPrefix(b.Cfg.Prefix))
	if err != nil {
		return nil, fmt.Errorf("invalid connection prefix: %w", err)
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []core.TableInfo
	for rows.Next() {
		var t core.TableInfo
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		t.RawName = prefix.RawTableName(t.Name, settings)
		t.Prefixed = t.RawName != t.Name
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}
