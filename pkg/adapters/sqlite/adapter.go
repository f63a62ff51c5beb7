// Package sqlite provides a pure Go SQLite adapter for prefixsql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/prefixsql/pkg/adapter"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"

	_ "modernc.org/sqlite" // sqlite driver
)

const memoryPath = ":memory:"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d, _ := dialect.Get("sqlite")
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQLDialect: d},
	}
}

// Connect opens the database at cfg.Path, or an in-memory one when the
// path is empty.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = memoryPath
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path), slog.String("prefix", cfg.Prefix))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// Every new connection to :memory: gets its own empty database.
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyPragmas(ctx, params); err != nil {
		_ = a.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyPragmas(ctx context.Context, p *Params) error {
	if p.BusyTimeout > 0 {
		if err := a.Exec(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", p.BusyTimeout)); err != nil {
			return fmt.Errorf("failed to set busy_timeout: %w", err)
		}
	}
	names := make([]string, 0, len(p.Pragmas))
	for name := range p.Pragmas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := a.Exec(ctx, fmt.Sprintf("PRAGMA %s = %s", name, p.Pragmas[name])); err != nil {
			return fmt.Errorf("failed to apply pragma %s: %w", name, err)
		}
	}
	return nil
}

// ListTables lists the user tables of the main database.
func (a *Adapter) ListTables(ctx context.Context) ([]adapter.TableInfo, error) {
	return a.ListTablesCommon(ctx, `
		SELECT 'main', name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
}
