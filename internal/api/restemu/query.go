package restemu

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/BearBump/LogiTrack/internal/storage/pgorders"
)

var ErrUnsupportedQuery = errors.New("unsupported query")

// parseQuery reads the PostgREST subset we serve: select, order, limit and eq filters.
func parseQuery(tableName string, v url.Values) (pgorders.Query, error) {
	q := pgorders.Query{Table: tableName}
	for key, vals := range v {
		for _, val := range vals {
			switch key {
			case "select":
				q.Columns = parseSelect(val)
			case "order":
				order, err := parseOrder(val)
				if err != nil {
					return pgorders.Query{}, err
				}
				q.Order = append(q.Order, order...)
			case "limit":
				n, err := strconv.Atoi(val)
				if err != nil || n < 0 {
					return pgorders.Query{}, errors.Wrapf(ErrUnsupportedQuery, "limit %q", val)
				}
				q.Limit = n
			default:
				operand, ok := strings.CutPrefix(val, "eq.")
				if !ok {
					return pgorders.Query{}, errors.Wrapf(ErrUnsupportedQuery, "%s=%s: only eq is supported", key, val)
				}
				q.Filters = append(q.Filters, pgorders.Filter{Column: key, Value: operand})
			}
		}
	}
	sortFilters(q.Filters)
	return q, nil
}

func parseSelect(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return nil
	}
	var cols []string
	for _, c := range strings.Split(v, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// parseOrder accepts "col", "col.asc", "col.desc", comma separated. nullsfirst/nullslast are ignored.
func parseOrder(v string) ([]pgorders.Order, error) {
	var out []pgorders.Order
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ".")
		o := pgorders.Order{Column: fields[0]}
		for _, mod := range fields[1:] {
			switch mod {
			case "asc":
			case "desc":
				o.Desc = true
			case "nullsfirst", "nullslast":
			default:
				return nil, errors.Wrapf(ErrUnsupportedQuery, "order %q", part)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// url.Values is a map; keep filter order stable for the SQL we generate.
func sortFilters(fs []pgorders.Filter) {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Column < fs[j].Column })
}

func returnRepresentation(prefer string) bool {
	for _, p := range strings.Split(prefer, ",") {
		if strings.TrimSpace(p) == "return=representation" {
			return true
		}
	}
	return false
}
