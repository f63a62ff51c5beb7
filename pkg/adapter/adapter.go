// Package adapter provides database adapter interfaces and the helpers that
// run table-prefixed queries through them.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
)

// Type aliases for types defined in pkg/core.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// TableInfo is an alias for core.TableInfo.
	TableInfo = core.TableInfo
)

// Adapter defines the interface that all database adapters must implement.
// Every adapter is also a core.Connection, so queries run through it can be
// seeded with its table prefix and quote characters.
type Adapter interface {
	core.Connection

	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// ListTables returns the tables of the default schema.
	ListTables(ctx context.Context) ([]TableInfo, error)

	// Dialect returns the SQL dialect of this adapter.
	Dialect() *dialect.Dialect

	// Conn returns the underlying database handle, or nil when not connected.
	Conn() *sql.DB
}
