// Package query turns list parameters (filters, sort and range) into a
// validated Spec that the store executes as a bounded page plus a total count.
//
// Every collection declares a static Schema. Only parameters named by the
// schema become conditions, unknown keys are ignored and malformed values for
// known keys are rejected with a *ParamError.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

const (
	ParamSort  = "_sort"
	ParamOrder = "_order"
	ParamStart = "_start"
	ParamEnd   = "_end"
	ParamID    = "id"

	DefaultSort  = "id"
	DefaultStart = 0
	DefaultEnd   = 20
)

type Match int

const (
	// Exact compares strings for equality. Repeated values match any of them.
	Exact Match = iota
	// IContains matches a case-insensitive substring.
	IContains
	Bool
	// Int compares integers for equality. Repeated values match any of them.
	Int
	// Member matches rows related to any of the given ids through a join table.
	Member
)

// Join describes a many-to-many table used by Member fields.
type Join struct {
	Table       string
	OwnerColumn string
	ValueColumn string
}

type Field struct {
	Param  string
	Column string
	Match  Match
	Join   Join
}

type Schema struct {
	Fields []Field
	// Sort maps sortable parameter names to columns.
	Sort map[string]string
}

type ParamError struct {
	Param  string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Param, e.Reason)
}

type condition struct {
	sql string
	arg any
}

// Spec is a validated list request. It carries no behavior beyond rendering
// itself into SQL fragments.
type Spec struct {
	conditions []condition
	IDs        []int64
	SortColumn string
	Desc       bool
	Start      int
	End        int
}

type Page[T any] struct {
	Items []T
	Total int
}

func (s Schema) Parse(v url.Values) (Spec, error) {
	spec := Spec{
		SortColumn: s.Sort[DefaultSort],
		Start:      DefaultStart,
		End:        DefaultEnd,
	}

	if sort := v.Get(ParamSort); sort != "" {
		col, ok := s.Sort[sort]
		if !ok {
			return Spec{}, &ParamError{Param: ParamSort, Value: sort, Reason: "field is not sortable"}
		}
		spec.SortColumn = col
	}

	if order := v.Get(ParamOrder); order != "" {
		switch strings.ToLower(order) {
		case "asc":
		case "desc":
			spec.Desc = true
		default:
			return Spec{}, &ParamError{Param: ParamOrder, Value: order, Reason: "expected asc or desc"}
		}
	}

	var err error
	if spec.Start, err = parseOffset(v, ParamStart, DefaultStart); err != nil {
		return Spec{}, err
	}
	if spec.End, err = parseOffset(v, ParamEnd, DefaultEnd); err != nil {
		return Spec{}, err
	}

	if ids, ok := v[ParamID]; ok {
		if spec.IDs, err = parseInts(ParamID, ids); err != nil {
			return Spec{}, err
		}
	}

	for _, f := range s.Fields {
		vals, ok := v[f.Param]
		if !ok || len(vals) == 0 {
			continue
		}

		c, err := f.condition(vals)
		if err != nil {
			return Spec{}, err
		}
		spec.conditions = append(spec.conditions, c)
	}

	return spec, nil
}

// condition renders the field into SQL. "?" stands for the field's argument
// and is numbered when the Spec is rendered.
func (f Field) condition(vals []string) (condition, error) {
	switch f.Match {
	case Exact:
		if len(vals) == 1 {
			return condition{sql: f.Column + " = ?", arg: vals[0]}, nil
		}
		return condition{sql: f.Column + " = ANY(?)", arg: pq.Array(vals)}, nil

	case IContains:
		return condition{sql: f.Column + " ILIKE ?", arg: "%" + escapeLike(vals[0]) + "%"}, nil

	case Bool:
		b, err := strconv.ParseBool(vals[0])
		if err != nil {
			return condition{}, &ParamError{Param: f.Param, Value: vals[0], Reason: "expected a boolean"}
		}
		return condition{sql: f.Column + " = ?", arg: b}, nil

	case Int:
		ids, err := parseInts(f.Param, vals)
		if err != nil {
			return condition{}, err
		}
		if len(ids) == 1 {
			return condition{sql: f.Column + " = ?", arg: ids[0]}, nil
		}
		return condition{sql: f.Column + " = ANY(?)", arg: pq.Array(ids)}, nil

	case Member:
		ids, err := parseInts(f.Param, vals)
		if err != nil {
			return condition{}, err
		}
		sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s j WHERE j.%s = %s AND j.%s = ANY(?))",
			f.Join.Table, f.Join.OwnerColumn, f.Column, f.Join.ValueColumn)
		return condition{sql: sql, arg: pq.Array(ids)}, nil
	}

	return condition{}, fmt.Errorf("unsupported match %d for %s", f.Match, f.Param)
}

// Where renders the filter conditions. Placeholders are numbered from 1.
// The returned clause is empty when the spec has no conditions.
func (s Spec) Where(idColumn string) (string, []any) {
	var (
		parts []string
		args  []any
	)

	if len(s.IDs) > 0 {
		args = append(args, pq.Array(s.IDs))
		parts = append(parts, fmt.Sprintf("%s = ANY($%d)", idColumn, len(args)))
	}

	for _, c := range s.conditions {
		args = append(args, c.arg)
		parts = append(parts, strings.Replace(c.sql, "?", fmt.Sprintf("$%d", len(args)), 1))
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

// OrderBy renders the ordering. idColumn breaks ties so pages are stable.
func (s Spec) OrderBy(idColumn string) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}

	if s.SortColumn == "" || s.SortColumn == idColumn {
		return fmt.Sprintf("ORDER BY %s %s", idColumn, dir)
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, %s %s", s.SortColumn, dir, idColumn, dir)
}

// Limit is the page size. A range with end <= start is empty.
func (s Spec) Limit() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Spec) Offset() int {
	return s.Start
}

func parseOffset(v url.Values, param string, def int) (int, error) {
	raw := v.Get(param)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ParamError{Param: param, Value: raw, Reason: "expected a non-negative integer"}
	}
	return n, nil
}

func parseInts(param string, vals []string) ([]int64, error) {
	ids := make([]int64, 0, len(vals))
	for _, raw := range vals {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &ParamError{Param: param, Value: raw, Reason: "expected an integer"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
