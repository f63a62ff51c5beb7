package queryfile

import (
	"fmt"

	"github.com/leapstack-labs/prefixsql/pkg/query"
	"gopkg.in/yaml.v3"
)

// Condition is a WHERE, HAVING or ON condition. It is one of:
//
//	"raw sql"                          raw condition
//	{sql: "a.x > ?", args: [1]}        raw condition with args
//	{field: a.x, op: ">", value: 1}    comparison (op defaults to =)
//	{field: a.x, in: [1, 2]}           IN list
//	{field: a.x, ident: b.y}           comparison with another column
//	{field: a.x, null: true}           IS NULL
//	{or: [...]} / {and: [...]}         nested group
type Condition struct {
	SQL   string      `yaml:"sql"`
	Args  []any       `yaml:"args"`
	Field string      `yaml:"field"`
	Op    string      `yaml:"op"`
	Value any         `yaml:"value"`
	In    []any       `yaml:"in"`
	Ident string      `yaml:"ident"`
	Null  bool        `yaml:"null"`
	Or    []Condition `yaml:"or"`
	And   []Condition `yaml:"and"`

	line int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	c.line = value.Line
	if value.Kind == yaml.ScalarNode {
		c.SQL = value.Value
		return nil
	}
	type plain Condition
	if err := value.Decode((*plain)(c)); err != nil {
		return err
	}
	c.line = value.Line
	return nil
}

// Conditions is a list of conditions ANDed together.
type Conditions []Condition

// expression converts c to a query condition and its args.
func (c Condition) expression() (any, []any, error) {
	switch {
	case len(c.Or) > 0 || len(c.And) > 0:
		nested, op := c.And, query.And
		if len(c.Or) > 0 {
			nested, op = c.Or, query.Or
		}
		exprs, err := Conditions(nested).expressions()
		if err != nil {
			return nil, nil, err
		}
		return op(exprs...), nil, nil
	case c.SQL != "":
		return c.SQL, c.Args, nil
	case c.Field == "":
		return nil, nil, fmt.Errorf("line %d: %w", c.line, ErrEmptyCondition)
	case c.In != nil:
		return query.In(c.Field, c.In), nil, nil
	case c.Ident != "":
		return query.Cmp(c.Field, c.op(), query.Ident(c.Ident)), nil, nil
	case c.Null:
		return query.IsNull(c.Field), nil, nil
	default:
		return query.Cmp(c.Field, c.op(), c.Value), nil, nil
	}
}

func (c Condition) op() string {
	if c.Op == "" {
		return "="
	}
	return c.Op
}

// expressions converts cs for use inside And, Or or a join. Raw conditions
// with args are wrapped with query.Cond.
func (cs Conditions) expressions() ([]any, error) {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		expr, args, err := c.expression()
		if err != nil {
			return nil, err
		}
		if sql, ok := expr.(string); ok && len(args) > 0 {
			expr = query.Cond(sql, args...)
		}
		out = append(out, expr)
	}
	return out, nil
}

// apply adds every condition through add, e.g. (*query.Query).Where.
func (cs Conditions) apply(add func(cond any, args ...any) *query.Query) error {
	for _, c := range cs {
		expr, args, err := c.expression()
		if err != nil {
			return err
		}
		add(expr, args...)
	}
	return nil
}
