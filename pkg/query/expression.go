package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Expression is a node of a query's expression tree.
type Expression interface {
	exprNode()
	writeSQL(b *binder) (string, error)
}

// ---------- Comparison ----------

// Comparison compares a field against a value or another expression.
type Comparison struct {
	field string
	op    string
	value any
}

func (*Comparison) exprNode() {}

// Cmp returns a comparison "field op value".
func Cmp(field, op string, value any) *Comparison {
	return &Comparison{field: field, op: strings.ToUpper(strings.TrimSpace(op)), value: value}
}

// Eq returns "field = value".
func Eq(field string, value any) *Comparison { return Cmp(field, "=", value) }

// IsNull returns "field IS NULL".
func IsNull(field string) *Comparison { return Cmp(field, "IS", nil) }

// In returns "field IN (values...)".
func In[T any](field string, values []T) *Comparison {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Cmp(field, "IN", vals)
}

// InQuery returns "field IN (subquery)".
func InQuery(field string, sub *Query) *Comparison { return Cmp(field, "IN", sub) }

// Field returns the compared field.
func (c *Comparison) Field() string { return c.field }

// SetField replaces the compared field.
func (c *Comparison) SetField(f string) { c.field = f }

// Op returns the comparison operator.
func (c *Comparison) Op() string { return c.op }

func (c *Comparison) writeSQL(b *binder) (string, error) {
	if c.value == nil {
		if c.op == "IS" || c.op == "=" {
			return c.field + " IS NULL", nil
		}
		if c.op == "IS NOT" || c.op == "!=" || c.op == "<>" {
			return c.field + " IS NOT NULL", nil
		}
	}

	switch v := c.value.(type) {
	case Expression:
		rhs, err := v.writeSQL(b)
		if err != nil {
			return "", err
		}
		return c.field + " " + c.op + " " + rhs, nil
	case *Query:
		sub, err := v.compile(b)
		if err != nil {
			return "", err
		}
		return c.field + " " + c.op + " (" + sub + ")", nil
	}

	if c.op == "IN" || c.op == "NOT IN" {
		rv := reflect.ValueOf(c.value)
		if rv.Kind() != reflect.Slice {
			return "", fmt.Errorf("%s %s: expected a slice, got %T", c.field, c.op, c.value)
		}
		if rv.Len() == 0 {
			return "", fmt.Errorf("%s %s: empty value list", c.field, c.op)
		}
		holders := make([]string, rv.Len())
		for i := range holders {
			holders[i] = b.bind(rv.Index(i).Interface())
		}
		return c.field + " " + c.op + " (" + strings.Join(holders, ", ") + ")", nil
	}

	return c.field + " " + c.op + " " + b.bind(c.value), nil
}

// ---------- Identifier ----------

// Identifier is a bare column or table reference used as a value.
type Identifier struct {
	name string
}

func (*Identifier) exprNode() {}

// Ident returns an identifier expression.
func Ident(name string) *Identifier { return &Identifier{name: name} }

// Identifier returns the referenced name.
func (i *Identifier) Identifier() string { return i.name }

// SetIdentifier replaces the referenced name.
func (i *Identifier) SetIdentifier(name string) { i.name = name }

func (i *Identifier) writeSQL(*binder) (string, error) { return i.name, nil }

// ---------- Conjunction ----------

type condition struct {
	sql  string
	args []any
	expr Expression
}

// Conjunction joins conditions with AND or OR. Conditions are either raw
// SQL strings with ? placeholders or nested expressions.
type Conjunction struct {
	op    string
	conds []condition
	err   error
}

func (*Conjunction) exprNode() {}

// And returns a conjunction of the given conditions.
// Each condition is a raw SQL string or an Expression.
func And(conds ...any) *Conjunction { return newConjunction("AND", conds) }

// Or returns a disjunction of the given conditions.
func Or(conds ...any) *Conjunction { return newConjunction("OR", conds) }

// Cond returns a single raw condition bound to args, for nesting raw SQL
// with placeholders inside And or Or.
func Cond(sql string, args ...any) *Conjunction {
	c := &Conjunction{op: "AND"}
	c.add(sql, args...)
	return c
}

func newConjunction(op string, conds []any) *Conjunction {
	c := &Conjunction{op: op}
	for _, cond := range conds {
		c.add(cond)
	}
	return c
}

func (c *Conjunction) add(cond any, args ...any) {
	switch v := cond.(type) {
	case Expression:
		c.conds = append(c.conds, condition{expr: v})
	case string:
		c.conds = append(c.conds, condition{sql: v, args: args})
	default:
		c.err = fmt.Errorf("unsupported condition type %T", cond)
	}
}

// Len returns the number of conditions.
func (c *Conjunction) Len() int { return len(c.conds) }

// IterateConditions calls fn for each raw condition string and stores
// the returned value in its place.
func (c *Conjunction) IterateConditions(fn func(cond string) string) {
	for i := range c.conds {
		if c.conds[i].expr == nil {
			c.conds[i].sql = fn(c.conds[i].sql)
		}
	}
}

func (c *Conjunction) writeSQL(b *binder) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	parts := make([]string, 0, len(c.conds))
	for _, cond := range c.conds {
		if cond.expr != nil {
			s, err := cond.expr.writeSQL(b)
			if err != nil {
				return "", err
			}
			if nested, ok := cond.expr.(*Conjunction); ok && nested.Len() > 1 {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
			continue
		}
		s, err := b.bindRaw(cond.sql, cond.args)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "+c.op+" "), nil
}

// ---------- OrderBy ----------

type orderPart struct {
	key string
	dir string
}

// OrderBy holds ordering keys with their directions.
type OrderBy struct {
	parts []orderPart
}

func (*OrderBy) exprNode() {}

func (o *OrderBy) add(key, dir string) {
	o.parts = append(o.parts, orderPart{key: key, dir: strings.ToUpper(strings.TrimSpace(dir))})
}

// IterateParts calls fn for each (key, direction) pair and stores the
// returned key in its place.
func (o *OrderBy) IterateParts(fn func(key, dir string) string) {
	for i := range o.parts {
		o.parts[i].key = fn(o.parts[i].key, o.parts[i].dir)
	}
}

func (o *OrderBy) writeSQL(*binder) (string, error) {
	parts := make([]string, len(o.parts))
	for i, p := range o.parts {
		parts[i] = p.key
		if p.dir != "" {
			parts[i] += " " + p.dir
		}
	}
	return strings.Join(parts, ", "), nil
}

// ---------- Func ----------

// Func is a function call over expression arguments.
type Func struct {
	name string
	args []Expression
}

func (*Func) exprNode() {}

// Fn returns a function call expression.
func Fn(name string, args ...Expression) *Func { return &Func{name: name, args: args} }

func (f *Func) writeSQL(b *binder) (string, error) {
	args := make([]string, len(f.args))
	for i, a := range f.args {
		s, err := a.writeSQL(b)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return f.name + "(" + strings.Join(args, ", ") + ")", nil
}

// ---------- Value / Raw ----------

// Value is a bound parameter.
type Value struct {
	v any
}

func (*Value) exprNode() {}

// Val returns a bound parameter expression.
func Val(v any) *Value { return &Value{v: v} }

func (v *Value) writeSQL(b *binder) (string, error) { return b.bind(v.v), nil }

// RawExpr is SQL emitted verbatim. It is never rewritten.
type RawExpr struct {
	sql  string
	args []any
}

func (*RawExpr) exprNode() {}

// Raw returns a verbatim SQL expression with ? placeholders for args.
func Raw(sql string, args ...any) *RawExpr { return &RawExpr{sql: sql, args: args} }

func (r *RawExpr) writeSQL(b *binder) (string, error) { return b.bindRaw(r.sql, r.args) }

// children returns the nested expressions of e.
func children(e Expression) []Expression {
	switch v := e.(type) {
	case *Conjunction:
		var out []Expression
		for _, c := range v.conds {
			if c.expr != nil {
				out = append(out, c.expr)
			}
		}
		return out
	case *Comparison:
		if x, ok := v.value.(Expression); ok {
			return []Expression{x}
		}
	case *Func:
		return v.args
	}
	return nil
}

// walk visits e and its children in pre-order.
func walk(e Expression, visit func(any)) {
	if e == nil {
		return
	}
	visit(e)
	for _, c := range children(e) {
		walk(c, visit)
	}
}
