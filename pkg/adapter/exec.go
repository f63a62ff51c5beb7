package adapter

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/dialect"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
	"github.com/leapstack-labs/prefixsql/pkg/query"
	"github.com/leapstack-labs/prefixsql/pkg/rewrite"
)

// Compile prefixes q for conn and compiles it with the placeholders of d.
// The prefix pass runs on q and on every subquery.
func Compile(q *query.Query, conn core.Connection, d *dialect.Dialect, opts ...rewrite.Option) (string, []any, error) {
	if d == nil {
		return "", nil, dialect.ErrDialectRequired
	}
	p := rewrite.New(conn, opts...)
	return q.SQL(d.Placeholder, func(q *query.Query) error {
		return p.Prefix(q)
	})
}

// Exec prefixes, compiles and executes a statement that returns no rows.
func Exec(ctx context.Context, a Adapter, q *query.Query, opts ...rewrite.Option) error {
	sql, args, err := Compile(q, a, a.Dialect(), opts...)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", q.Kind(), err)
	}
	return a.Exec(ctx, sql, args...)
}

// Select prefixes, compiles and runs a query returning rows.
func Select(ctx context.Context, a Adapter, q *query.Query, opts ...rewrite.Option) (*Rows, error) {
	sql, args, err := Compile(q, a, a.Dialect(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", q.Kind(), err)
	}
	return a.Query(ctx, sql, args...)
}

// KnownTables returns the raw names of the tables on a that carry its
// prefix. An adapter without a prefix yields every table. The migration
// version table is skipped.
func KnownTables(ctx context.Context, a Adapter) ([]string, error) {
	tables, err := a.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range tables {
		if t.RawName == defaultVersionTable {
			continue
		}
		if a.Prefix() == "" || t.Prefixed {
			names = append(names, t.RawName)
		}
	}
	return names, nil
}

// WithKnownTables returns a rewrite option registering the prefixed tables
// discovered on a.
func WithKnownTables(ctx context.Context, a Adapter) (rewrite.Option, error) {
	names, err := KnownTables(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("failed to discover tables: %w", err)
	}
	return rewrite.WithSettings(prefix.WithTables(names...)), nil
}
