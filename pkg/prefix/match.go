package prefix

import (
	"regexp"
	"strings"
)

// WordPattern returns the pattern for a bare identifier token. When a quote
// pair is configured the quote characters become members of the class so a
// quoted token is matched whole.
func WordPattern(open, close string) string {
	class := `\w`
	if open != "" && close != "" {
		class += regexp.QuoteMeta(open)
		if close != open {
			class += regexp.QuoteMeta(close)
		}
	}
	return "[" + class + "-]+"
}

// qualifiedPattern matches <open?>table<close?>.<word|*>.
// Groups: 1 open quote, 2 table, 3 close quote, 4 field.
func qualifiedPattern(open, close string) string {
	optional := func(q string) string {
		if q == "" {
			return ""
		}
		return "(?:" + regexp.QuoteMeta(q) + ")?"
	}
	return "(" + optional(open) + `)([\w-]+)(` + optional(close) + `)\.(` + WordPattern(open, close) + `|\*)`
}

type refKind int

const (
	refOther refKind = iota
	refRaw
	refPrefixed
)

// reference is a qualified table.field occurrence inside a snippet.
type reference struct {
	kind       refKind
	table      string
	tableStart int
}

// references returns every qualified reference in text. A match whose table
// is not known is rescanned from its field, so the table in a
// schema.table.field chain is still found.
func (s *Settings) references(text string) []reference {
	if s == nil || s.qualified == nil || !strings.Contains(text, ".") {
		return nil
	}
	var refs []reference
	pos := 0
	for pos < len(text) {
		loc := s.qualified.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		table := text[pos+loc[4] : pos+loc[5]]
		ref := reference{table: table, tableStart: pos + loc[4]}
		switch {
		case s.isKnown(table):
			ref.kind = refRaw
		case s.isPrefixedKnown(table):
			ref.kind = refPrefixed
		}
		refs = append(refs, ref)
		if ref.kind == refOther {
			pos += loc[8]
			continue
		}
		pos += loc[1]
	}
	return refs
}
