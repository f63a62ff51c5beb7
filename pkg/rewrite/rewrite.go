// Package rewrite applies table-name prefixing to a query's clauses and
// expression tree.
package rewrite

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/core"
	"github.com/leapstack-labs/prefixsql/pkg/prefix"
)

// Query is the view of a query builder the rewriter needs.
type Query interface {
	// Clause returns the parts of a clause, or nil when empty.
	Clause(kind core.Clause) []core.ClausePart

	// SetClause writes back rewritten parts of a clause.
	SetClause(kind core.Clause, parts []core.ClausePart) error

	// TableNames returns the tables the query refers to.
	TableNames() []string

	// TraverseExpressions visits every expression node.
	TraverseExpressions(visit func(expr any))
}

// Expression capabilities, checked in this order during traversal.
type (
	fieldExpression interface {
		Field() string
		SetField(string)
	}

	orderExpression interface {
		IterateParts(fn func(key, dir string) string)
	}

	identifierExpression interface {
		Identifier() string
		SetIdentifier(string)
	}

	conditionExpression interface {
		IterateConditions(fn func(cond string) string)
	}
)

// clauseOrder is the fixed processing order of clauses.
var clauseOrder = []core.Clause{
	core.ClauseSelect,
	core.ClauseFrom,
	core.ClauseJoin,
	core.ClauseGroup,
	core.ClauseInsert,
	core.ClauseUpdate,
}

// Prefixer rewrites queries so that references to known tables carry the
// connection's table prefix.
type Prefixer struct {
	conn   core.Connection
	opts   []prefix.Option
	logger *slog.Logger
}

// Option configures a Prefixer.
type Option func(*Prefixer)

// WithLogger sets the logger. Rewrites are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prefixer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSettings adds settings options applied on top of the values seeded
// from the connection and the query, such as extra tables or strict mode.
func WithSettings(opts ...prefix.Option) Option {
	return func(p *Prefixer) {
		p.opts = append(p.opts, opts...)
	}
}

// New creates a Prefixer for conn.
func New(conn core.Connection, opts ...Option) *Prefixer {
	p := &Prefixer{
		conn:   conn,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings builds the settings for one rewrite pass over q.
func (p *Prefixer) Settings(q Query) (*prefix.Settings, error) {
	open, closeQuote := p.conn.QuoteStrings()
	opts := []prefix.Option{
		prefix.WithPrefix(p.conn.Prefix()),
		prefix.WithQuoteStrings(open, closeQuote),
		prefix.WithTables(q.TableNames()...),
	}
	return prefix.New(append(opts, p.opts...)...)
}

// Prefix rewrites q in place. Invalid settings are reported before q is
// touched. A connection without a prefix leaves q unchanged.
func (p *Prefixer) Prefix(q Query) error {
	s, err := p.Settings(q)
	if err != nil {
		return fmt.Errorf("table prefix settings: %w", err)
	}
	if s.Prefix() == "" {
		return nil
	}

	for _, kind := range clauseOrder {
		parts := q.Clause(kind)
		if len(parts) == 0 {
			continue
		}
		rewritten := rewriteClause(kind, parts, s)
		if slices.Equal(parts, rewritten) {
			continue
		}
		if err := q.SetClause(kind, rewritten); err != nil {
			return fmt.Errorf("rewrite %s clause: %w", kind, err)
		}
		p.logger.Debug("prefixed clause",
			slog.String("clause", kind.String()),
			slog.Int("parts", len(parts)))
	}

	q.TraverseExpressions(func(expr any) {
		RewriteExpression(expr, s)
	})
	return nil
}

func rewriteClause(kind core.Clause, parts []core.ClausePart, s *prefix.Settings) []core.ClausePart {
	switch kind {
	case core.ClauseInsert, core.ClauseUpdate, core.ClauseFrom, core.ClauseJoin:
		return prefix.PrefixTableRefs(parts, s, true, func(p *core.ClausePart) *string {
			if p.Opaque {
				return nil
			}
			return &p.Value
		})
	case core.ClauseSelect, core.ClauseGroup:
		out := make([]core.ClausePart, len(parts))
		copy(out, parts)
		for i := range out {
			if !out[i].Opaque && prefix.NeedsPrefix(out[i].Value, s) {
				out[i].Value = prefix.PrefixFieldName(out[i].Value, s)
			}
		}
		return out
	}
	return parts
}

// RewriteExpression rewrites a single expression node according to its
// capabilities. Nodes with no known capability are skipped.
func RewriteExpression(expr any, s *prefix.Settings) {
	switch e := expr.(type) {
	case fieldExpression:
		if f := e.Field(); strings.Contains(f, ".") && prefix.NeedsPrefix(f, s) {
			e.SetField(prefix.PrefixFieldName(f, s))
		}
	case orderExpression:
		e.IterateParts(func(key, _ string) string {
			return prefix.PrefixFieldName(key, s)
		})
	case identifierExpression:
		if id := e.Identifier(); strings.Contains(id, ".") && prefix.NeedsPrefix(id, s) {
			e.SetIdentifier(prefix.PrefixFieldName(id, s))
		}
	case conditionExpression:
		e.IterateConditions(func(cond string) string {
			if prefix.NeedsPrefix(cond, s) {
				return prefix.PrefixFieldName(cond, s)
			}
			return cond
		})
	}
}
