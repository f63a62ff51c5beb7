// Package dialect describes the identifier quoting and placeholder rules of
// the SQL dialects prefixsql can render for.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/core"
)

// Dialect is a SQL dialect.
type Dialect struct {
	Name          string
	Identifiers   core.IdentifierConfig
	DefaultSchema string                // Default schema name ("main" for DuckDB, "public" for Postgres)
	Placeholder   core.PlaceholderStyle // How to format query parameters
}

// Config returns the static configuration of the dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &core.DialectConfig{
		Name:          d.Name,
		Identifiers:   d.Identifiers,
		DefaultSchema: d.DefaultSchema,
		Placeholder:   d.Placeholder,
	}
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// QuoteStrings returns the identifier quote pair, suitable for seeding a
// table-prefix rewrite.
func (d *Dialect) QuoteStrings() (string, string) {
	return d.Identifiers.Quote, d.Identifiers.QuoteEnd
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	if d.Identifiers.Quote == "" {
		return name
	}
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// Builder builds a Dialect.
type Builder struct {
	d Dialect
}

// NewDialect starts a dialect definition.
func NewDialect(name string) *Builder {
	return &Builder{d: Dialect{Name: name}}
}

// Identifiers sets the quote pair and the escape sequence for the end quote.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.d.Identifiers = core.IdentifierConfig{Quote: quote, QuoteEnd: quoteEnd, Escape: escape}
	return b
}

// DefaultSchema sets the default schema.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.d.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets the parameter placeholder style.
func (b *Builder) PlaceholderStyle(p core.PlaceholderStyle) *Builder {
	b.d.Placeholder = p
	return b
}

// Build returns the dialect.
func (b *Builder) Build() *Dialect {
	d := b.d
	return &d
}
