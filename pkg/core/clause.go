package core

// Clause identifies a query clause whose table or field references can be
// rewritten.
type Clause int

const (
	ClauseSelect Clause = iota
	ClauseFrom
	ClauseJoin
	ClauseGroup
	ClauseInsert
	ClauseUpdate
)

// String returns the clause name.
func (c Clause) String() string {
	switch c {
	case ClauseSelect:
		return "select"
	case ClauseFrom:
		return "from"
	case ClauseJoin:
		return "join"
	case ClauseGroup:
		return "group"
	case ClauseInsert:
		return "insert"
	case ClauseUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// ClausePart is one entry of a clause: a table name, a projected field
// or a grouping key. Opaque parts (subqueries) carry no rewritable value.
type ClausePart struct {
	Value  string
	Alias  string
	Opaque bool
}
