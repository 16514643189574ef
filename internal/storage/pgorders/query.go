package pgorders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Row is one table row keyed by column name.
type Row = map[string]any

// Filter is an equality condition, column = value. Value is the raw query operand.
type Filter struct {
	Column string
	Value  string
}

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
}

type statement struct {
	sql  string
	args []any
}

func (t table) where(filters []Filter, args []any) (string, []any, error) {
	if len(filters) == 0 {
		return "", args, nil
	}
	conds := make([]string, 0, len(filters))
	for _, f := range filters {
		c, err := t.column(f.Column)
		if err != nil {
			return "", nil, err
		}
		v, err := c.parse(f.Value)
		if err != nil {
			return "", nil, err
		}
		if v == nil {
			conds = append(conds, c.name+" IS NULL")
			continue
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func buildSelect(q Query) (statement, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return statement{}, err
	}
	cols, err := t.projection(q.Columns)
	if err != nil {
		return statement{}, err
	}
	where, args, err := t.where(q.Filters, nil)
	if err != nil {
		return statement{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM " + t.name + where)
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			c, err := t.column(o.Column)
			if err != nil {
				return statement{}, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, c.name+" "+dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return statement{sql: b.String(), args: args}, nil
}

// assignments converts a JSON row into sorted column names and typed values.
func (t table) assignments(row Row) ([]string, []any, error) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	vals := make([]any, 0, len(names))
	for _, name := range names {
		c, err := t.column(name)
		if err != nil {
			return nil, nil, err
		}
		v, err := c.convert(row[name])
		if err != nil {
			return nil, nil, err
		}
		vals = append(vals, v)
	}
	return names, vals, nil
}

func buildInsert(t table, row Row) (statement, error) {
	returning := " RETURNING " + strings.Join(t.columnNames(), ", ")
	if len(row) == 0 {
		return statement{sql: "INSERT INTO " + t.name + " DEFAULT VALUES" + returning}, nil
	}
	names, vals, err := t.assignments(row)
	if err != nil {
		return statement{}, err
	}
	ph := make([]string, len(vals))
	for i := range vals {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := "INSERT INTO " + t.name + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")" + returning
	return statement{sql: sql, args: vals}, nil
}

func buildUpdate(q Query, patch Row) (statement, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return statement{}, err
	}
	if len(q.Filters) == 0 {
		return statement{}, ErrFilterRequired
	}
	if len(patch) == 0 {
		return statement{}, errors.Wrap(ErrInvalidValue, "empty patch")
	}
	names, vals, err := t.assignments(patch)
	if err != nil {
		return statement{}, err
	}
	sets := make([]string, len(names))
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s = $%d", name, i+1)
	}
	where, args, err := t.where(q.Filters, vals)
	if err != nil {
		return statement{}, err
	}
	sql := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + where + " RETURNING " + strings.Join(t.columnNames(), ", ")
	return statement{sql: sql, args: args}, nil
}

func buildDelete(q Query) (statement, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return statement{}, err
	}
	if len(q.Filters) == 0 {
		return statement{}, ErrFilterRequired
	}
	where, args, err := t.where(q.Filters, nil)
	if err != nil {
		return statement{}, err
	}
	sql := "DELETE FROM " + t.name + where + " RETURNING " + strings.Join(t.columnNames(), ", ")
	return statement{sql: sql, args: args}, nil
}
