package prefix

import (
	"strings"
)

// HasTableReference reports whether text is a known table name (optionally
// quoted, optionally already prefixed) or contains a qualified reference to
// one. Without known tables it is always false.
func HasTableReference(text string, s *Settings) bool {
	if s == nil || len(s.known) == 0 {
		return false
	}
	name := s.trimQuotes(text)
	if s.isKnown(name) || s.isPrefixedKnown(name) {
		return true
	}
	for _, ref := range s.references(text) {
		if ref.kind != refOther {
			return true
		}
	}
	return false
}

// IsPrefixed reports whether text already carries the prefix.
//
// In table-clause position text is only a table name, so the prefix must sit
// at the start, after an optional open quote. Elsewhere text is a snippet
// that is prefixed when it references at least one prefixed known table and
// no raw one. Without known tables a snippet cannot be classified: the
// result is false, or ErrAmbiguousPrefix when the settings are strict.
func IsPrefixed(text string, s *Settings, tableClause bool) (bool, error) {
	if s == nil || s.prefix == "" || text == s.prefix || !strings.Contains(text, s.prefix) {
		return false, nil
	}

	if tableClause {
		if strings.HasPrefix(text, s.prefix) {
			return true, nil
		}
		return s.quoteOpen != "" && strings.HasPrefix(text, s.quoteOpen) &&
			strings.HasPrefix(text[len(s.quoteOpen):], s.prefix), nil
	}

	if len(s.known) == 0 {
		if s.strict {
			return false, ErrAmbiguousPrefix
		}
		return false, nil
	}

	name := s.trimQuotes(text)
	if s.isPrefixedKnown(name) {
		return true, nil
	}

	var raw, prefixed int
	for _, ref := range s.references(text) {
		switch ref.kind {
		case refRaw:
			raw++
		case refPrefixed:
			prefixed++
		}
	}
	return prefixed > 0 && raw == 0, nil
}

// NeedsPrefix reports whether text references a known table and is not yet
// fully prefixed. It is the gate every rewrite goes through.
func NeedsPrefix(text string, s *Settings) bool {
	if !HasTableReference(text, s) {
		return false
	}
	// Known tables exist here, so IsPrefixed cannot be ambiguous.
	done, _ := IsPrefixed(text, s, false)
	return !done
}

// PrefixTableName prefixes a single known table name. A leading open quote
// stays the first character. Unknown or already prefixed names are returned
// unchanged. Any other text, such as a qualified reference or a table
// function call, has its references rewritten like PrefixFieldName.
func PrefixTableName(name string, s *Settings, tableClause bool) string {
	if s == nil || s.prefix == "" || !HasTableReference(name, s) {
		return name
	}
	if done, err := IsPrefixed(name, s, tableClause); err != nil || done {
		return name
	}
	if !s.isKnown(s.trimQuotes(name)) {
		return PrefixFieldName(name, s)
	}
	return splice(name, s.prefix, s.quoteOpen)
}

// PrefixTableNames applies PrefixTableName to every name and returns a new slice.
func PrefixTableNames(names []string, s *Settings, tableClause bool) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = PrefixTableName(name, s, tableClause)
	}
	return out
}

// PrefixTableRefs rewrites the table field of each record, as returned by
// table. Records for which table returns nil pass through. The input slice
// is not modified.
func PrefixTableRefs[T any](refs []T, s *Settings, tableClause bool, table func(*T) *string) []T {
	if refs == nil {
		return nil
	}
	out := make([]T, len(refs))
	copy(out, refs)
	for i := range out {
		if p := table(&out[i]); p != nil {
			*p = PrefixTableName(*p, s, tableClause)
		}
	}
	return out
}

// PrefixFieldName prefixes the table part of every qualified reference to a
// known table inside snippet, leaving quotes, fields and the surrounding SQL
// untouched. Snippets that do not need a prefix are returned unchanged.
func PrefixFieldName(snippet string, s *Settings) string {
	if !NeedsPrefix(snippet, s) {
		return snippet
	}
	var b strings.Builder
	b.Grow(len(snippet) + len(s.prefix)*2)
	last := 0
	for _, ref := range s.references(snippet) {
		if ref.kind != refRaw {
			continue
		}
		b.WriteString(snippet[last:ref.tableStart])
		b.WriteString(s.prefix)
		last = ref.tableStart
	}
	b.WriteString(snippet[last:])
	return b.String()
}

// RawTableName strips one leading prefix from name, keeping a leading open
// quote in place.
func RawTableName(name string, s *Settings) string {
	if s == nil || s.prefix == "" {
		return name
	}
	open := ""
	body := name
	if s.quoteOpen != "" && strings.HasPrefix(name, s.quoteOpen) {
		open = s.quoteOpen
		body = name[len(open):]
	}
	if !strings.HasPrefix(body, s.prefix) {
		return name
	}
	rest := body[len(s.prefix):]
	if rest == "" || rest == s.quoteClose {
		return name
	}
	return open + rest
}

func splice(name, prefix, open string) string {
	if open != "" && strings.HasPrefix(name, open) {
		return open + prefix + name[len(open):]
	}
	return prefix + name
}
