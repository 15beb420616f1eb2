package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/seqvault/seqvault/internal/db/models"
	"github.com/seqvault/seqvault/internal/db/store"
)

// IDDecoder turns opaque id strings back into database ids.
type IDDecoder interface {
	Decode(encoded string) (uint64, error)
}

type filterField struct {
	column string
	ops    []store.Operator
	parse  func(string) (any, error)
}

// FilterParser turns "field-op" / value query pairs into store filters.
type FilterParser struct {
	fields map[string]filterField
	orders map[string]string
}

var ( //nolint:gochecknoglobals
	equalityOps   = []store.Operator{store.OpEq, store.OpNe, store.OpIn}
	booleanOps    = []store.Operator{store.OpEq, store.OpNe}
	comparisonOps = []store.Operator{store.OpEq, store.OpNe, store.OpGt, store.OpGe, store.OpLt, store.OpLe}
	timeLayouts   = []string{TimeFormat, time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}
)

// NewFilterParser returns a parser decoding id values with ids.
func NewFilterParser(ids IDDecoder) *FilterParser {
	return &FilterParser{
		fields: map[string]filterField{
			"id": {column: "id", ops: equalityOps, parse: func(v string) (any, error) {
				return ids.Decode(v) //nolint:wrapcheck
			}},
			"state":       {column: "state", ops: equalityOps, parse: parseState},
			"deleted":     {column: "deleted", ops: booleanOps, parse: parseBool},
			"purged":      {column: "purged", ops: booleanOps, parse: parseBool},
			"create_time": {column: "created_at", ops: comparisonOps, parse: parseTime},
			"update_time": {column: "updated_at", ops: comparisonOps, parse: parseTime},
		},
		orders: map[string]string{
			"id":          "id",
			"create_time": "created_at",
			"update_time": "updated_at",
			"state":       "state",
		},
	}
}

// Parse pairs q[i] ("deleted-eq") with qv[i] ("false"). Values of "in" are comma separated.
func (p *FilterParser) Parse(q, qv []string) ([]store.Filter, error) {
	if len(q) != len(qv) {
		return nil, fmt.Errorf("%w: %d filters but %d values", ErrInvalidFilter, len(q), len(qv))
	}

	filters := make([]store.Filter, 0, len(q))

	for i, expr := range q {
		f, err := p.parseOne(expr, qv[i])
		if err != nil {
			return nil, err
		}

		filters = append(filters, f)
	}

	return filters, nil
}

func (p *FilterParser) parseOne(expr, raw string) (store.Filter, error) {
	name, op, found := cut(expr)
	if !found {
		op = string(store.OpEq)
	}

	field, ok := p.fields[name]
	if !ok {
		return store.Filter{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, name)
	}

	operator := store.Operator(op)
	if !lo.Contains(field.ops, operator) {
		return store.Filter{}, fmt.Errorf("%w: operator %q not allowed on %s", ErrInvalidFilter, op, name)
	}

	if operator != store.OpIn {
		v, err := field.parse(raw)
		if err != nil {
			return store.Filter{}, fmt.Errorf("%w: %s: %w", ErrInvalidFilter, name, err)
		}

		return store.Filter{Column: field.column, Op: operator, Value: v}, nil
	}

	values := make([]any, 0)

	for _, part := range strings.Split(raw, ",") {
		v, err := field.parse(strings.TrimSpace(part))
		if err != nil {
			return store.Filter{}, fmt.Errorf("%w: %s: %w", ErrInvalidFilter, name, err)
		}

		values = append(values, v)
	}

	return store.Filter{Column: field.column, Op: operator, Value: values}, nil
}

// ParseOrder parses "create_time-dsc" style orders. Several orders are comma separated.
func (p *FilterParser) ParseOrder(order string) ([]store.Order, error) {
	if order == "" {
		return nil, nil
	}

	var out []store.Order

	for _, part := range strings.Split(order, ",") {
		name, dir, found := cut(strings.TrimSpace(part))

		column, ok := p.orders[name]
		if !ok {
			return nil, fmt.Errorf("%w: cannot order by %q", ErrInvalidFilter, name)
		}

		switch {
		case !found || dir == "asc":
			out = append(out, store.Order{Column: column})
		case dir == "dsc" || dir == "desc":
			out = append(out, store.Order{Column: column, Desc: true})
		default:
			return nil, fmt.Errorf("%w: unknown order direction %q", ErrInvalidFilter, dir)
		}
	}

	return out, nil
}

// cut splits expr at its last dash.
func cut(expr string) (string, string, bool) {
	i := strings.LastIndex(expr, "-")
	if i < 0 {
		return expr, "", false
	}

	return expr[:i], expr[i+1:], true
}

func parseState(v string) (any, error) {
	state := models.DatasetState(v)
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, v)
	}

	return string(state), nil
}

func parseBool(v string) (any, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return b, nil
}

func parseTime(v string) (any, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}

	return nil, fmt.Errorf("unsupported time %q", v) //nolint:goerr113
}
