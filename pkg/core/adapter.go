package core

import (
	"database/sql"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string

	// Prefix is prepended to every physical table name on this connection.
	Prefix string

	Options map[string]string
	Params  map[string]any
}

// TableInfo describes a table discovered on a connection.
type TableInfo struct {
	Schema   string
	Name     string // physical name as stored
	RawName  string // name with the connection prefix removed
	Prefixed bool
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
