// Package prefix detects and rewrites references to known tables so that
// every physical table name carries a configured prefix.
//
// All functions are pure: they take an immutable *Settings explicitly and
// never mutate it, so one Settings value may be shared by concurrent
// rewrites.
package prefix

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrInvalidQuoteStrings is returned when the quote pair is not both-empty or both-set.
	ErrInvalidQuoteStrings = errors.New("quote strings must be an empty or a complete open/close pair")

	// ErrInvalidPrefix is returned when the prefix is not identifier-shaped.
	ErrInvalidPrefix = errors.New("invalid table prefix")

	// ErrInvalidTableName is returned when a registered table is not identifier-shaped.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrAmbiguousPrefix is returned in strict mode when a compound snippet
	// cannot be classified because no known tables are configured.
	ErrAmbiguousPrefix = errors.New("cannot safely determine whether snippet is prefixed without known tables")
)

var identifierRe = regexp.MustCompile(`^[\w-]+$`)

// Settings holds the prefix, the known raw table names and the identifier
// quote pair used by every matcher. Build with New or Merge.
type Settings struct {
	prefix     string
	tables     []string
	known      map[string]struct{}
	quoteOpen  string
	quoteClose string
	strict     bool

	// pending state, validated by finalize
	quotes    []string
	quotesSet bool

	qualified *regexp.Regexp
}

// Option configures Settings.
type Option func(*Settings)

// WithPrefix sets the table prefix. An empty prefix disables rewriting.
func WithPrefix(p string) Option {
	return func(s *Settings) {
		s.prefix = p
	}
}

// WithTables registers known table names. Names accumulate across options
// and merges; quoted or already prefixed names are normalized to raw form.
func WithTables(names ...string) Option {
	return func(s *Settings) {
		s.tables = append(s.tables, names...)
	}
}

// WithQuoteStrings sets the identifier quote pair. Pass none to disable
// quoting, or exactly an open and a close string.
func WithQuoteStrings(q ...string) Option {
	return func(s *Settings) {
		s.quotes = q
		s.quotesSet = true
	}
}

// WithStrict makes IsPrefixed report ErrAmbiguousPrefix instead of false
// when a compound snippet is checked without any known tables.
func WithStrict(strict bool) Option {
	return func(s *Settings) {
		s.strict = strict
	}
}

// New builds Settings from options.
func New(opts ...Option) (*Settings, error) {
	return (*Settings)(nil).Merge(opts...)
}

// Merge returns a copy of s with opts applied. Given options override the
// current values, except known tables which accumulate. s is never modified.
func (s *Settings) Merge(opts ...Option) (*Settings, error) {
	next := &Settings{}
	if s != nil {
		next.prefix = s.prefix
		next.tables = append([]string(nil), s.tables...)
		next.quoteOpen = s.quoteOpen
		next.quoteClose = s.quoteClose
		next.strict = s.strict
	}
	for _, opt := range opts {
		opt(next)
	}
	if err := next.finalize(); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Settings) finalize() error {
	if s.quotesSet {
		switch len(s.quotes) {
		case 0:
			s.quoteOpen, s.quoteClose = "", ""
		case 2:
			if (s.quotes[0] == "") != (s.quotes[1] == "") {
				return fmt.Errorf("%w: got %q", ErrInvalidQuoteStrings, s.quotes)
			}
			s.quoteOpen, s.quoteClose = s.quotes[0], s.quotes[1]
		default:
			return fmt.Errorf("%w: expected 0 or 2 strings, got %d", ErrInvalidQuoteStrings, len(s.quotes))
		}
		s.quotes, s.quotesSet = nil, false
	}

	if s.prefix != "" && !identifierRe.MatchString(s.prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, s.prefix)
	}

	s.known = make(map[string]struct{}, len(s.tables))
	for _, name := range s.tables {
		raw := s.trimQuotes(RawTableName(name, s))
		if !identifierRe.MatchString(raw) {
			return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
		s.known[raw] = struct{}{}
	}
	s.tables = make([]string, 0, len(s.known))
	for name := range s.known {
		s.tables = append(s.tables, name)
	}
	sort.Strings(s.tables)

	s.qualified = regexp.MustCompile(qualifiedPattern(s.quoteOpen, s.quoteClose))
	return nil
}

// Prefix returns the configured table prefix.
func (s *Settings) Prefix() string {
	if s == nil {
		return ""
	}
	return s.prefix
}

// Tables returns the known raw table names, sorted.
func (s *Settings) Tables() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.tables...)
}

// QuoteStrings returns the identifier quote pair.
func (s *Settings) QuoteStrings() (string, string) {
	if s == nil {
		return "", ""
	}
	return s.quoteOpen, s.quoteClose
}

// Strict reports whether ambiguous checks return ErrAmbiguousPrefix.
func (s *Settings) Strict() bool {
	return s != nil && s.strict
}

func (s *Settings) isKnown(name string) bool {
	_, ok := s.known[name]
	return ok
}

// isPrefixedKnown reports whether name is the prefix followed by a known table.
func (s *Settings) isPrefixedKnown(name string) bool {
	return s.prefix != "" && strings.HasPrefix(name, s.prefix) && s.isKnown(name[len(s.prefix):])
}

// trimQuotes removes one surrounding quote pair, if present.
func (s *Settings) trimQuotes(text string) string {
	if s == nil || s.quoteOpen == "" {
		return text
	}
	if len(text) >= len(s.quoteOpen)+len(s.quoteClose) &&
		strings.HasPrefix(text, s.quoteOpen) && strings.HasSuffix(text, s.quoteClose) {
		return text[len(s.quoteOpen) : len(text)-len(s.quoteClose)]
	}
	return text
}
