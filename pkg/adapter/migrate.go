package adapter

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

const defaultVersionTable = "goose_db_version"

// VersionTable returns the migration version table for a connection prefix.
func VersionTable(tablePrefix string) string {
	return tablePrefix + defaultVersionTable
}

func gooseDialect(name string) (string, error) {
	switch name {
	case "sqlite":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlserver":
		return "mssql", nil
	default:
		return "", fmt.Errorf("migrations are not supported for dialect %q", name)
	}
}

// Migrate applies the migrations found in dir of fsys and returns the
// resulting schema version. Versions are recorded in the prefixed version
// table so several prefixed applications can share one database.
func Migrate(ctx context.Context, a Adapter, fsys fs.FS, dir string) (int64, error) {
	db := a.Conn()
	if db == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	if a.Dialect() == nil {
		return 0, fmt.Errorf("adapter has no dialect")
	}
	name, err := gooseDialect(a.Dialect().Name)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetTableName(VersionTable(a.Prefix()))
	defer goose.SetTableName(defaultVersionTable)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(name); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
