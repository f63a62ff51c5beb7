// Package query provides a small SQL query builder whose clauses and
// expression tree are exposed for rewriting before compilation.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/core"
)

// ErrNoTable is returned when an insert, update or delete has no target table.
var ErrNoTable = errors.New("query has no target table")

// Kind is the statement type of a query.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "select"
	}
}

// JoinType is the kind of a join.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
)

type join struct {
	typ   JoinType
	table string
	alias string
	on    *Conjunction
}

type source struct {
	part core.ClausePart
	sub  *Query
}

// Hook runs against a query (and each of its subqueries) before it is
// compiled.
type Hook func(*Query) error

// Query is a mutable SQL statement.
type Query struct {
	kind     Kind
	distinct bool

	selects []core.ClausePart
	from    []source
	joins   []join
	where   *Conjunction
	groups  []core.ClausePart
	having  *Conjunction
	order   *OrderBy
	limit   *int
	offset  *int

	table   string
	columns []string
	rows    [][]any
	sets    []*Comparison

	tables []string
}

// New returns an empty select query.
func New() *Query {
	return &Query{}
}

// Kind returns the statement type.
func (q *Query) Kind() Kind { return q.kind }

// ---------- Builder ----------

// Select adds projected fields.
func (q *Query) Select(fields ...string) *Query {
	q.kind = KindSelect
	for _, f := range fields {
		q.selects = append(q.selects, core.ClausePart{Value: f})
	}
	return q
}

// SelectAs adds a projected field with an alias.
func (q *Query) SelectAs(field, alias string) *Query {
	q.kind = KindSelect
	q.selects = append(q.selects, core.ClausePart{Value: field, Alias: alias})
	return q
}

// Distinct makes the select distinct.
func (q *Query) Distinct() *Query {
	q.distinct = true
	return q
}

// From adds source tables.
func (q *Query) From(tables ...string) *Query {
	for _, t := range tables {
		q.from = append(q.from, source{part: core.ClausePart{Value: t}})
	}
	return q
}

// FromAs adds a source table with an alias.
func (q *Query) FromAs(table, alias string) *Query {
	q.from = append(q.from, source{part: core.ClausePart{Value: table, Alias: alias}})
	return q
}

// FromSub adds a subquery source. The subquery is compiled, and its hooks
// run, when the outer query is compiled.
func (q *Query) FromSub(sub *Query, alias string) *Query {
	q.from = append(q.from, source{part: core.ClausePart{Alias: alias, Opaque: true}, sub: sub})
	return q
}

// Join adds a join. Each condition is a raw SQL string or an Expression.
func (q *Query) Join(typ JoinType, table, alias string, on ...any) *Query {
	q.joins = append(q.joins, join{typ: typ, table: table, alias: alias, on: And(on...)})
	return q
}

// InnerJoin adds an inner join.
func (q *Query) InnerJoin(table, alias string, on ...any) *Query {
	return q.Join(JoinInner, table, alias, on...)
}

// LeftJoin adds a left join.
func (q *Query) LeftJoin(table, alias string, on ...any) *Query {
	return q.Join(JoinLeft, table, alias, on...)
}

// Where adds a condition, ANDed with the existing ones. cond is a raw SQL
// string with ? placeholders for args, or an Expression.
func (q *Query) Where(cond any, args ...any) *Query {
	if q.where == nil {
		q.where = And()
	}
	q.where.add(cond, args...)
	return q
}

// Group adds grouping keys.
func (q *Query) Group(keys ...string) *Query {
	for _, k := range keys {
		q.groups = append(q.groups, core.ClausePart{Value: k})
	}
	return q
}

// Having adds a having condition.
func (q *Query) Having(cond any, args ...any) *Query {
	if q.having == nil {
		q.having = And()
	}
	q.having.add(cond, args...)
	return q
}

// OrderBy adds an ordering key. dir may be empty, ASC or DESC.
func (q *Query) OrderBy(key, dir string) *Query {
	if q.order == nil {
		q.order = &OrderBy{}
	}
	q.order.add(key, dir)
	return q
}

// Limit sets the row limit.
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Offset sets the row offset.
func (q *Query) Offset(n int) *Query {
	q.offset = &n
	return q
}

// InsertInto turns q into an insert into table.
func (q *Query) InsertInto(table string, columns ...string) *Query {
	q.kind = KindInsert
	q.table = table
	q.columns = columns
	return q
}

// Values adds a row of values to an insert.
func (q *Query) Values(vals ...any) *Query {
	q.rows = append(q.rows, vals)
	return q
}

// Update turns q into an update of table.
func (q *Query) Update(table string) *Query {
	q.kind = KindUpdate
	q.table = table
	return q
}

// Set adds an assignment to an update. value may be an Expression.
func (q *Query) Set(column string, value any) *Query {
	q.sets = append(q.sets, Cmp(column, "=", value))
	return q
}

// DeleteFrom turns q into a delete from table.
func (q *Query) DeleteFrom(table string) *Query {
	q.kind = KindDelete
	q.from = []source{{part: core.ClausePart{Value: table}}}
	return q
}

// RegisterTables declares table names the query refers to beyond its own
// FROM, JOIN and target tables.
func (q *Query) RegisterTables(names ...string) *Query {
	q.tables = append(q.tables, names...)
	return q
}

// ---------- Clause access ----------

// Clause returns a copy of the parts of the given clause.
func (q *Query) Clause(kind core.Clause) []core.ClausePart {
	switch kind {
	case core.ClauseSelect:
		return append([]core.ClausePart(nil), q.selects...)
	case core.ClauseFrom:
		if q.kind != KindSelect && q.kind != KindDelete {
			return nil
		}
		parts := make([]core.ClausePart, len(q.from))
		for i, s := range q.from {
			parts[i] = s.part
		}
		return parts
	case core.ClauseJoin:
		parts := make([]core.ClausePart, len(q.joins))
		for i, j := range q.joins {
			parts[i] = core.ClausePart{Value: j.table, Alias: j.alias}
		}
		return parts
	case core.ClauseGroup:
		return append([]core.ClausePart(nil), q.groups...)
	case core.ClauseInsert:
		if q.kind == KindInsert && q.table != "" {
			return []core.ClausePart{{Value: q.table}}
		}
	case core.ClauseUpdate:
		if q.kind == KindUpdate && q.table != "" {
			return []core.ClausePart{{Value: q.table}}
		}
	}
	return nil
}

// SetClause replaces the values of a clause. parts must have the same
// length as the current clause; the values of opaque parts are ignored.
func (q *Query) SetClause(kind core.Clause, parts []core.ClausePart) error {
	if cur := q.Clause(kind); len(cur) != len(parts) {
		return fmt.Errorf("set %s clause: expected %d parts, got %d", kind, len(cur), len(parts))
	}
	switch kind {
	case core.ClauseSelect:
		copy(q.selects, parts)
	case core.ClauseFrom:
		for i := range parts {
			if !q.from[i].part.Opaque {
				q.from[i].part.Value = parts[i].Value
			}
			q.from[i].part.Alias = parts[i].Alias
		}
	case core.ClauseJoin:
		for i := range q.joins {
			q.joins[i].table = parts[i].Value
			q.joins[i].alias = parts[i].Alias
		}
	case core.ClauseGroup:
		copy(q.groups, parts)
	case core.ClauseInsert, core.ClauseUpdate:
		if len(parts) == 1 {
			q.table = parts[0].Value
		}
	default:
		return fmt.Errorf("unknown clause %d", int(kind))
	}
	return nil
}

// TableNames returns every table name the query refers to: registered
// names plus FROM, JOIN and target tables. Schema qualifiers are dropped.
// Clause values that are not plain, optionally quoted and qualified, table
// names are skipped: function calls, inline aliases and quoted names with
// spaces cannot be known tables.
func (q *Query) TableNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}
	for _, n := range q.tables {
		if i := strings.LastIndex(n, "."); i >= 0 {
			n = n[i+1:]
		}
		add(n)
	}
	for _, s := range q.from {
		if !s.part.Opaque {
			add(clauseTableName(s.part.Value))
		}
	}
	for _, j := range q.joins {
		add(clauseTableName(j.table))
	}
	if q.table != "" {
		add(clauseTableName(q.table))
	}
	return names
}

var (
	qualifiedNameRe = regexp.MustCompile("^[\\w\\-.\"`\\[\\]]+$")
	tableNameRe     = regexp.MustCompile(`^[\w-]+$`)
)

// clauseTableName returns the last segment of a qualified table name, or ""
// when value is not a table name.
func clauseTableName(value string) string {
	if !qualifiedNameRe.MatchString(value) {
		return ""
	}
	name := value
	if i := strings.LastIndex(value, "."); i >= 0 {
		name = value[i+1:]
	}
	if !tableNameRe.MatchString(strings.Trim(name, "\"`[]")) {
		return ""
	}
	return name
}

// TraverseExpressions visits every expression of the query in pre-order:
// join conditions, where, having, order and update assignments.
// Subqueries are not entered.
func (q *Query) TraverseExpressions(visit func(expr any)) {
	for _, j := range q.joins {
		if j.on != nil && j.on.Len() > 0 {
			walk(j.on, visit)
		}
	}
	if q.where != nil {
		walk(q.where, visit)
	}
	if q.having != nil {
		walk(q.having, visit)
	}
	if q.order != nil {
		walk(q.order, visit)
	}
	for _, s := range q.sets {
		walk(s, visit)
	}
}
