package pgorders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	TableOrders        = "orders"
	TableNotifications = "notifications"
)

var (
	ErrUnknownTable   = errors.New("unknown table")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrInvalidValue   = errors.New("invalid value")
	ErrFilterRequired = errors.New("filter required")
	ErrConflict       = errors.New("conflict")
)

type kind int

const (
	kindText kind = iota
	kindInt
	kindFloat
	kindBool
	kindTime
)

type column struct {
	name     string
	kind     kind
	nullable bool
}

type table struct {
	name    string
	columns []column
}

var tables = map[string]table{
	TableOrders: {
		name: TableOrders,
		columns: []column{
			{name: "id", kind: kindInt},
			{name: "order_code", kind: kindText},
			{name: "customer_name", kind: kindText},
			{name: "customer_phone", kind: kindText},
			{name: "customer_address", kind: kindText},
			{name: "product_name", kind: kindText},
			{name: "quantity", kind: kindInt},
			{name: "total_price", kind: kindFloat},
			{name: "status", kind: kindText},
			{name: "current_location", kind: kindText},
			{name: "customer_lat", kind: kindFloat, nullable: true},
			{name: "customer_lng", kind: kindFloat, nullable: true},
			{name: "driver_lat", kind: kindFloat, nullable: true},
			{name: "driver_lng", kind: kindFloat, nullable: true},
			{name: "created_at", kind: kindTime},
			{name: "updated_at", kind: kindTime},
		},
	},
	TableNotifications: {
		name: TableNotifications,
		columns: []column{
			{name: "id", kind: kindInt},
			{name: "order_code", kind: kindText},
			{name: "title", kind: kindText},
			{name: "body", kind: kindText},
			{name: "is_read", kind: kindBool},
			{name: "created_at", kind: kindTime},
		},
	},
}

// Tables lists the table names served by the emulator.
func Tables() []string {
	return []string{TableOrders, TableNotifications}
}

func lookupTable(name string) (table, error) {
	t, ok := tables[name]
	if !ok {
		return table{}, errors.Wrap(ErrUnknownTable, name)
	}
	return t, nil
}

func (t table) column(name string) (column, error) {
	for _, c := range t.columns {
		if c.name == name {
			return c, nil
		}
	}
	return column{}, errors.Wrapf(ErrUnknownColumn, "%s.%s", t.name, name)
}

func (t table) columnNames() []string {
	out := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		out = append(out, c.name)
	}
	return out
}

// projection validates the requested columns; empty means all of them.
func (t table) projection(cols []string) ([]string, error) {
	if len(cols) == 0 {
		return t.columnNames(), nil
	}
	out := make([]string, 0, len(cols))
	for _, name := range cols {
		if _, err := t.column(name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// parse converts a query string operand, e.g. the "5" of id=eq.5.
func (c column) parse(v string) (any, error) {
	if c.nullable && v == "null" {
		return nil, nil
	}
	switch c.kind {
	case kindInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, c.invalid(v)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, c.invalid(v)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, c.invalid(v)
		}
		return b, nil
	case kindTime:
		return parseTime(c, v)
	default:
		return v, nil
	}
}

// convert takes a value decoded from a JSON body.
func (c column) convert(v any) (any, error) {
	if v == nil {
		if c.nullable {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrInvalidValue, "%s: null not allowed", c.name)
	}

	switch c.kind {
	case kindText:
		s, ok := v.(string)
		if !ok {
			return nil, c.invalid(v)
		}
		return s, nil
	case kindInt:
		switch n := v.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, c.invalid(v)
			}
			return i, nil
		case float64:
			if n != math.Trunc(n) {
				return nil, c.invalid(v)
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case string:
			return c.parse(n)
		}
	case kindFloat:
		switch n := v.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, c.invalid(v)
			}
			return f, nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			return parseTime(c, t)
		}
	}
	return nil, c.invalid(v)
}

func (c column) invalid(v any) error {
	return errors.Wrapf(ErrInvalidValue, "%s: %v", c.name, v)
}

func parseTime(c column, v string) (any, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, c.invalid(v)
}
