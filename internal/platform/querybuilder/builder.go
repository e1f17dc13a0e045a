package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// writer accumulates SQL text and its positional $n arguments.
type writer struct {
	sql  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.sql.WriteString("$")
	w.sql.WriteString(strconv.Itoa(len(w.args)))
}

// expr writes raw SQL, binding each '?' to the next value in order.
func (w *writer) expr(raw string, values []any) {
	next := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '?' && next < len(values) {
			w.bind(values[next])
			next++
			continue
		}
		w.sql.WriteByte(raw[i])
	}
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.sql.WriteString(" WHERE ")
		} else {
			w.sql.WriteString(" AND ")
		}
		c.write(w)
	}
}

type Condition interface {
	write(w *writer)
}

type conditionFunc func(w *writer)

func (f conditionFunc) write(w *writer) { f(w) }

func Eq(column string, value any) Condition {
	return conditionFunc(func(w *writer) {
		w.sql.WriteString(column)
		w.sql.WriteString(" = ")
		w.bind(value)
	})
}

// Between is inclusive on both ends.
func Between(column string, low, high any) Condition {
	return conditionFunc(func(w *writer) {
		w.sql.WriteString(column)
		w.sql.WriteString(" BETWEEN ")
		w.bind(low)
		w.sql.WriteString(" AND ")
		w.bind(high)
	})
}

func In(column string, values []any) Condition {
	return conditionFunc(func(w *writer) {
		if len(values) == 0 {
			w.sql.WriteString("1=0")
			return
		}
		w.sql.WriteString(column)
		w.sql.WriteString(" IN (")
		for i, v := range values {
			if i > 0 {
				w.sql.WriteString(", ")
			}
			w.bind(v)
		}
		w.sql.WriteString(")")
	})
}

// Expr is a raw condition whose '?' markers are bound to args.
func Expr(raw string, args ...any) Condition {
	return conditionFunc(func(w *writer) {
		w.expr(raw, args)
	})
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := &writer{}
	w.sql.WriteString("SELECT ")
	w.sql.WriteString(strings.Join(b.columns, ", "))
	w.sql.WriteString(" FROM ")
	w.sql.WriteString(b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.sql.WriteString(" ORDER BY ")
		w.sql.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.sql.WriteString(" LIMIT ")
		w.sql.WriteString(strconv.Itoa(b.limit))
	}

	return w.sql.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	values  []any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append([]any(nil), values...)
	return b
}

// Suffix appends raw SQL such as ON CONFLICT or RETURNING.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.values) != len(b.columns) {
		return "", nil, fmt.Errorf("insert has %d values, expected %d", len(b.values), len(b.columns))
	}

	w := &writer{}
	w.sql.WriteString("INSERT INTO ")
	w.sql.WriteString(b.table)
	w.sql.WriteString(" (")
	w.sql.WriteString(strings.Join(b.columns, ", "))
	w.sql.WriteString(") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(v)
	}
	w.sql.WriteString(")")
	if b.suffix != "" {
		w.sql.WriteString(" ")
		w.sql.WriteString(b.suffix)
	}

	return w.sql.String(), w.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses an unconditional delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete without where is not allowed")
	}

	w := &writer{}
	w.sql.WriteString("DELETE FROM ")
	w.sql.WriteString(b.table)
	w.where(b.where)

	return w.sql.String(), w.args, nil
}
