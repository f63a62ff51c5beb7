package core

// Connection is the minimal view of a database connection needed to seed
// a table-prefix rewrite: the configured prefix and identifier quotes.
type Connection interface {
	// Prefix returns the table name prefix, or "" when prefixing is disabled.
	Prefix() string

	// QuoteStrings returns the open and close identifier quote strings.
	// Both are empty when the connection does not quote identifiers.
	QuoteStrings() (open, close string)
}

// StaticConnection is a Connection with fixed values.
// Useful for offline rendering and tests.
type StaticConnection struct {
	TablePrefix string
	QuoteOpen   string
	QuoteClose  string
}

// Prefix implements Connection.
func (c StaticConnection) Prefix() string {
	return c.TablePrefix
}

// QuoteStrings implements Connection.
func (c StaticConnection) QuoteStrings() (string, string) {
	return c.QuoteOpen, c.QuoteClose
}
