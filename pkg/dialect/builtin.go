package dialect

import "github.com/leapstack-labs/prefixsql/pkg/core"

var builtins = []*Dialect{
	// ansi has no identifier quoting, matching unquoted SQL text.
	NewDialect("ansi").Build(),

	NewDialect("duckdb").
		Identifiers(`"`, `"`, `""`).
		DefaultSchema("main").
		Build(),

	NewDialect("postgres").
		Identifiers(`"`, `"`, `""`).
		DefaultSchema("public").
		PlaceholderStyle(core.PlaceholderDollar).
		Build(),

	NewDialect("sqlite").
		Identifiers(`"`, `"`, `""`).
		DefaultSchema("main").
		Build(),

	NewDialect("mysql").
		Identifiers("`", "`", "``").
		Build(),

	NewDialect("sqlserver").
		Identifiers("[", "]", "]]").
		DefaultSchema("dbo").
		Build(),
}

func init() {
	for _, d := range builtins {
		Register(d)
	}
}
