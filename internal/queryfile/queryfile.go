// Package queryfile decodes YAML query definitions into query builders.
//
// A file describes one statement:
//
//	tables: [comments]
//	select:
//	  - articles.id
//	  - {field: COUNT(comments.id), as: comments}
//	from: [articles]
//	joins:
//	  - {type: left, table: comments, on: ["comments.article_id = articles.id"]}
//	where:
//	  - {sql: "articles.published = ?", args: [true]}
//	  - {field: articles.author_id, in: [1, 2]}
//	group: [articles.id]
//	order:
//	  - {key: articles.created, dir: desc}
//	limit: 10
//
// Statements other than select use one of insert, update or delete.
package queryfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/prefixsql/pkg/query"
	"gopkg.in/yaml.v3"
)

// File is a decoded query file.
type File struct {
	Path     string     `yaml:"-"`
	Tables   []string   `yaml:"tables"`
	Distinct bool       `yaml:"distinct"`
	Select   []Field    `yaml:"select"`
	From     []Source   `yaml:"from"`
	Joins    []Join     `yaml:"joins"`
	Where    Conditions `yaml:"where"`
	Group    []string   `yaml:"group"`
	Having   Conditions `yaml:"having"`
	Order    []Order    `yaml:"order"`
	Limit    *int       `yaml:"limit"`
	Offset   *int       `yaml:"offset"`
	Insert   *Insert    `yaml:"insert"`
	Update   *Update    `yaml:"update"`
	Delete   *Delete    `yaml:"delete"`
}

// Field is a select expression, optionally aliased. A plain string decodes
// to a field without alias.
type Field struct {
	Field string `yaml:"field"`
	As    string `yaml:"as"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Field = value.Value
		return nil
	}
	type plain Field
	return value.Decode((*plain)(f))
}

// Source is a FROM entry: a table with optional alias, or a subquery.
type Source struct {
	Table string `yaml:"table"`
	As    string `yaml:"as"`
	Query *File  `yaml:"query"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Table = value.Value
		return nil
	}
	type plain Source
	return value.Decode((*plain)(s))
}

// Join is a join entry.
type Join struct {
	Type  string     `yaml:"type"`
	Table string     `yaml:"table"`
	As    string     `yaml:"as"`
	On    Conditions `yaml:"on"`
}

// Order is an ordering key. A plain string decodes to a key without
// direction.
type Order struct {
	Key string `yaml:"key"`
	Dir string `yaml:"dir"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Order) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		o.Key = value.Value
		return nil
	}
	type plain Order
	return value.Decode((*plain)(o))
}

// Insert describes an insert statement.
type Insert struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
	Values  [][]any  `yaml:"values"`
}

// Update describes an update statement. Set keeps the order of the file.
type Update struct {
	Table string     `yaml:"table"`
	Set   Assigns    `yaml:"set"`
	Where Conditions `yaml:"where"`
}

// Delete describes a delete statement.
type Delete struct {
	Table string     `yaml:"table"`
	Where Conditions `yaml:"where"`
}

// Assign is a single column assignment.
type Assign struct {
	Column string
	Value  any
}

// Assigns decodes a YAML mapping into assignments, preserving key order.
type Assigns []Assign

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Assigns) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: set must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v any
		if err := value.Content[i+1].Decode(&v); err != nil {
			return err
		}
		*a = append(*a, Assign{Column: value.Content[i].Value, Value: v})
	}
	return nil
}

// Errors returned while building a query.
var (
	ErrMultipleStatements = errors.New("only one of insert, update and delete may be set")
	ErrEmptyCondition     = errors.New("condition needs sql, field or or/and")
)

// Parse decodes a query file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse query file: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the query file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Query builds the query described by f.
func (f *File) Query() (*query.Query, error) {
	statements := 0
	for _, set := range []bool{f.Insert != nil, f.Update != nil, f.Delete != nil} {
		if set {
			statements++
		}
	}
	if statements > 1 {
		return nil, ErrMultipleStatements
	}

	q := query.New().RegisterTables(f.Tables...)

	switch {
	case f.Insert != nil:
		q.InsertInto(f.Insert.Table, f.Insert.Columns...)
		for _, row := range f.Insert.Values {
			q.Values(row...)
		}
		return q, nil
	case f.Update != nil:
		q.Update(f.Update.Table)
		for _, a := range f.Update.Set {
			q.Set(a.Column, a.Value)
		}
		if err := f.Update.Where.apply(q.Where); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		return q, nil
	case f.Delete != nil:
		q.DeleteFrom(f.Delete.Table)
		if err := f.Delete.Where.apply(q.Where); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
		return q, nil
	}

	if f.Distinct {
		q.Distinct()
	}
	for _, s := range f.Select {
		if s.As != "" {
			q.SelectAs(s.Field, s.As)
		} else {
			q.Select(s.Field)
		}
	}
	for _, src := range f.From {
		switch {
		case src.Query != nil:
			sub, err := src.Query.Query()
			if err != nil {
				return nil, fmt.Errorf("subquery %s: %w", src.As, err)
			}
			q.FromSub(sub, src.As)
		case src.As != "":
			q.FromAs(src.Table, src.As)
		default:
			q.From(src.Table)
		}
	}
	for _, j := range f.Joins {
		typ, err := joinType(j.Type)
		if err != nil {
			return nil, err
		}
		on, err := j.On.expressions()
		if err != nil {
			return nil, fmt.Errorf("join %s: %w", j.Table, err)
		}
		q.Join(typ, j.Table, j.As, on...)
	}
	if err := f.Where.apply(q.Where); err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	q.Group(f.Group...)
	if err := f.Having.apply(q.Having); err != nil {
		return nil, fmt.Errorf("having: %w", err)
	}
	for _, o := range f.Order {
		q.OrderBy(o.Key, o.Dir)
	}
	if f.Limit != nil {
		q.Limit(*f.Limit)
	}
	if f.Offset != nil {
		q.Offset(*f.Offset)
	}
	return q, nil
}

func joinType(s string) (query.JoinType, error) {
	switch strings.ToLower(s) {
	case "", "inner":
		return query.JoinInner, nil
	case "left":
		return query.JoinLeft, nil
	case "right":
		return query.JoinRight, nil
	default:
		return "", fmt.Errorf("unknown join type %q", s)
	}
}
