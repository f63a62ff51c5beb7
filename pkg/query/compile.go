package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/core"
)

// binder collects bound arguments and formats placeholders.
type binder struct {
	style core.PlaceholderStyle
	hooks []Hook
	args  []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	if b.style == core.PlaceholderDollar {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// bindRaw binds args to the ? placeholders of sql, outside quoted strings.
func (b *binder) bindRaw(sql string, args []any) (string, error) {
	if len(args) == 0 && b.style == core.PlaceholderQuestion {
		return sql, nil
	}
	var sb strings.Builder
	n := 0
	inQuote := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == '?' && !inQuote:
			if n >= len(args) {
				return "", fmt.Errorf("condition %q: more placeholders than arguments (%d)", sql, len(args))
			}
			sb.WriteString(b.bind(args[n]))
			n++
			continue
		}
		sb.WriteRune(r)
	}
	if n != len(args) {
		return "", fmt.Errorf("condition %q: %d placeholders for %d arguments", sql, n, len(args))
	}
	return sb.String(), nil
}

// SQL runs hooks on the query and its subqueries, then compiles it into
// SQL text and bound arguments using the given placeholder style.
func (q *Query) SQL(style core.PlaceholderStyle, hooks ...Hook) (string, []any, error) {
	b := &binder{style: style, hooks: hooks}
	sql, err := q.compile(b)
	if err != nil {
		return "", nil, err
	}
	return sql, b.args, nil
}

func (q *Query) compile(b *binder) (string, error) {
	for _, h := range b.hooks {
		if err := h(q); err != nil {
			return "", err
		}
	}

	switch q.kind {
	case KindInsert:
		return q.compileInsert(b)
	case KindUpdate:
		return q.compileUpdate(b)
	case KindDelete:
		return q.compileDelete(b)
	default:
		return q.compileSelect(b)
	}
}

func aliased(value, alias string) string {
	if alias == "" {
		return value
	}
	return value + " AS " + alias
}

func (q *Query) compileSelect(b *binder) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(q.selects) == 0 {
		sb.WriteString("*")
	}
	for i, s := range q.selects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(aliased(s.Value, s.Alias))
	}

	if len(q.from) > 0 {
		sb.WriteString(" FROM ")
		for i, s := range q.from {
			if i > 0 {
				sb.WriteString(", ")
			}
			if s.sub != nil {
				sub, err := s.sub.compile(b)
				if err != nil {
					return "", fmt.Errorf("subquery %s: %w", s.part.Alias, err)
				}
				sb.WriteString(aliased("("+sub+")", s.part.Alias))
				continue
			}
			sb.WriteString(aliased(s.part.Value, s.part.Alias))
		}
	}

	for _, j := range q.joins {
		sb.WriteString(" " + string(j.typ) + " JOIN " + aliased(j.table, j.alias))
		if j.on != nil && j.on.Len() > 0 {
			on, err := j.on.writeSQL(b)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ON " + on)
		}
	}

	if err := q.writeWhere(&sb, b); err != nil {
		return "", err
	}

	if len(q.groups) > 0 {
		keys := make([]string, len(q.groups))
		for i, g := range q.groups {
			keys[i] = g.Value
		}
		sb.WriteString(" GROUP BY " + strings.Join(keys, ", "))
	}

	if q.having != nil && q.having.Len() > 0 {
		having, err := q.having.writeSQL(b)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING " + having)
	}

	if q.order != nil && len(q.order.parts) > 0 {
		order, _ := q.order.writeSQL(b)
		sb.WriteString(" ORDER BY " + order)
	}
	if q.limit != nil {
		sb.WriteString(" LIMIT " + strconv.Itoa(*q.limit))
	}
	if q.offset != nil {
		sb.WriteString(" OFFSET " + strconv.Itoa(*q.offset))
	}
	return sb.String(), nil
}

func (q *Query) writeWhere(sb *strings.Builder, b *binder) error {
	if q.where == nil || q.where.Len() == 0 {
		return nil
	}
	where, err := q.where.writeSQL(b)
	if err != nil {
		return err
	}
	sb.WriteString(" WHERE " + where)
	return nil
}

func (q *Query) compileInsert(b *binder) (string, error) {
	if q.table == "" {
		return "", ErrNoTable
	}
	if len(q.rows) == 0 {
		return "", fmt.Errorf("insert into %s: no values", q.table)
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + q.table)
	if len(q.columns) > 0 {
		sb.WriteString(" (" + strings.Join(q.columns, ", ") + ")")
	}
	sb.WriteString(" VALUES ")
	for i, row := range q.rows {
		if len(q.columns) > 0 && len(row) != len(q.columns) {
			return "", fmt.Errorf("insert into %s: row %d has %d values for %d columns", q.table, i, len(row), len(q.columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		holders := make([]string, len(row))
		for j, v := range row {
			if e, ok := v.(Expression); ok {
				s, err := e.writeSQL(b)
				if err != nil {
					return "", err
				}
				holders[j] = s
				continue
			}
			holders[j] = b.bind(v)
		}
		sb.WriteString("(" + strings.Join(holders, ", ") + ")")
	}
	return sb.String(), nil
}

func (q *Query) compileUpdate(b *binder) (string, error) {
	if q.table == "" {
		return "", ErrNoTable
	}
	if len(q.sets) == 0 {
		return "", fmt.Errorf("update %s: no assignments", q.table)
	}
	sets := make([]string, len(q.sets))
	for i, s := range q.sets {
		var rhs string
		if e, ok := s.value.(Expression); ok {
			v, err := e.writeSQL(b)
			if err != nil {
				return "", err
			}
			rhs = v
		} else {
			rhs = b.bind(s.value)
		}
		sets[i] = s.field + " = " + rhs
	}
	var sb strings.Builder
	sb.WriteString("UPDATE " + q.table + " SET " + strings.Join(sets, ", "))
	if err := q.writeWhere(&sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (q *Query) compileDelete(b *binder) (string, error) {
	if len(q.from) == 0 || q.from[0].part.Value == "" {
		return "", ErrNoTable
	}
	var sb strings.Builder
	sb.WriteString("DELETE FROM " + q.from[0].part.Value)
	if err := q.writeWhere(&sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}
