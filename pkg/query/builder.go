package query

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Type is the statement kind a builder assembles.
type Type int

const (
	Select Type = iota
	SelectDistinct
	Insert
	Update
	Delete
)

func (t Type) String() string {
	switch t {
	case Select:
		return "SELECT"
	case SelectDistinct:
		return "SELECT DISTINCT"
	case Insert:
		return "INSERT INTO"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Row is one result row keyed by column name.
type Row = map[string]any

// condition is a WHERE fragment with its positional arguments. It is
// rendered at assembly time, once the target table is known.
type condition struct {
	expr string
	args []any
}

type join struct {
	table string
	on    string
}

type order struct {
	column    string
	direction string
}

type fragment struct {
	sql   string
	binds map[string]any
}

// state is the builder data shared by every typed view of one query.
type state struct {
	conn      *Conn
	typ       Type
	table     string
	columns   []string
	groups    [][]condition
	scope     []condition
	joins     []join
	orders    []order
	limit     []int
	raw       []fragment
	values    map[string]any
	mergeNext bool
	err       error
}

// Builder assembles one SQL statement through chained clause calls and
// executes it. Result rows are hydrated into T.
//
// A builder is single-use and not safe for concurrent use.
type Builder[T any] struct {
	q       *state
	hydrate func(Row) T
}

// New starts a query of the given type. data seeds the statement:
// the column list ([]string) for SELECT, the values (map[string]any) for
// INSERT and the table (string) for UPDATE. DELETE ignores it.
func New(c *Conn, typ Type, data any) *Builder[Row] {
	q := &state{conn: c, typ: typ}

	switch typ {
	case Select, SelectDistinct:
		switch v := data.(type) {
		case nil:
		case []string:
			q.columns = slices.Clone(v)
		case string:
			q.columns = []string{v}
		default:
			q.err = fmt.Errorf("%w: %T for %s", ErrInvalidData, data, typ)
		}
	case Insert:
		switch v := data.(type) {
		case nil:
		case map[string]any:
			q.values = maps.Clone(v)
		default:
			q.err = fmt.Errorf("%w: %T for %s", ErrInvalidData, data, typ)
		}
	case Update:
		table, ok := data.(string)
		if !ok {
			q.err = fmt.Errorf("%w: %T for %s", ErrInvalidData, data, typ)
		}
		q.table = table
	case Delete:
	default:
		q.err = ErrUnknownType
	}

	return &Builder[Row]{q: q, hydrate: func(r Row) Row { return r }}
}

// Hydrate returns a view of b whose results are converted by fn. Both
// builders share the same query state.
func Hydrate[T, U any](b *Builder[U], fn func(Row) T) *Builder[T] {
	return &Builder[T]{q: b.q, hydrate: fn}
}

// Type returns the statement type.
func (b *Builder[T]) Type() Type { return b.q.typ }

// Table returns the target table as set, before prefix substitution.
func (b *Builder[T]) Table() string { return b.q.table }

// Conn returns the connection the builder executes on.
func (b *Builder[T]) Conn() *Conn { return b.q.conn }

// From sets the target table.
func (b *Builder[T]) From(table string) *Builder[T] {
	b.q.table = table
	return b
}

// Into sets the target table of an INSERT.
func (b *Builder[T]) Into(table string) *Builder[T] {
	return b.From(table)
}

// Set replaces the values written by INSERT or UPDATE.
func (b *Builder[T]) Set(values map[string]any) *Builder[T] {
	b.q.values = maps.Clone(values)
	return b
}

// Where adds a condition. Each ? in cond consumes one of args; a slice
// argument expands to one placeholder per element.
//
// Placeholders are named after the compared column for "col <op> ?",
// "col [NOT] IN (?)", "col [NOT] LIKE ?", "col IS [NOT] ?" and
// "col [NOT] BETWEEN ? AND ?". Any other ? (function operands, arithmetic)
// binds a generic :param name.
//
// Every call opens a new group and groups are OR-ed together, unless
// MergeNextWhere was set, in which case the condition is AND-ed into the
// last group.
func (b *Builder[T]) Where(cond string, args ...any) *Builder[T] {
	b.addGroup([]condition{{expr: cond, args: args}})
	return b
}

// WhereMap adds one group AND-ing every entry of conds, in key order.
// A key without a ? is compared for equality with its value.
func (b *Builder[T]) WhereMap(conds map[string]any) *Builder[T] {
	if len(conds) == 0 {
		return b
	}
	group := make([]condition, 0, len(conds))
	for _, k := range slices.Sorted(maps.Keys(conds)) {
		expr := k
		if !strings.Contains(k, "?") {
			expr = k + " = ?"
		}
		group = append(group, condition{expr: expr, args: []any{conds[k]}})
	}
	b.addGroup(group)
	return b
}

func (b *Builder[T]) addGroup(group []condition) {
	if b.q.mergeNext && len(b.q.groups) > 0 {
		last := len(b.q.groups) - 1
		b.q.groups[last] = append(b.q.groups[last], group...)
	} else {
		b.q.groups = append(b.q.groups, group)
	}
	b.q.mergeNext = false
}

// MergeNextWhere makes the next Where AND into the most recent group
// instead of opening a new one.
func (b *Builder[T]) MergeNextWhere(merge bool) *Builder[T] {
	b.q.mergeNext = merge
	return b
}

// Scope adds a condition AND-ed into every WHERE group, including groups
// added later. With no groups it forms the WHERE clause on its own.
func (b *Builder[T]) Scope(cond string, args ...any) *Builder[T] {
	b.q.scope = append(b.q.scope, condition{expr: cond, args: args})
	return b
}

// OrderBy appends an ordering term. direction is ASC unless it reads DESC.
func (b *Builder[T]) OrderBy(column, direction string) *Builder[T] {
	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(direction), "DESC") {
		dir = "DESC"
	}
	b.q.orders = append(b.q.orders, order{column: column, direction: dir})
	return b
}

// OrderByMap appends one ordering term per entry, in key order.
func (b *Builder[T]) OrderByMap(terms map[string]string) *Builder[T] {
	for _, col := range slices.Sorted(maps.Keys(terms)) {
		b.OrderBy(col, terms[col])
	}
	return b
}

// Limit sets LIMIT from, or LIMIT from, to when to is given.
func (b *Builder[T]) Limit(from int, to ...int) *Builder[T] {
	b.q.limit = append([]int{from}, to...)
	if len(b.q.limit) > 2 {
		b.q.limit = b.q.limit[:2]
	}
	return b
}

// Join adds a LEFT JOIN of table on the given clause. cols are added to the
// select list, qualified with the joined table.
func (b *Builder[T]) Join(table, on string, cols ...string) *Builder[T] {
	b.q.joins = append(b.q.joins, join{table: table, on: on})
	for _, col := range cols {
		if !strings.Contains(col, ".") && !strings.Contains(col, "(") {
			col = table + "." + col
		}
		b.q.columns = append(b.q.columns, col)
	}
	return b
}

// Raw appends an SQL fragment after the WHERE clause. Values referenced by
// :name placeholders in the fragment go into binds.
func (b *Builder[T]) Raw(sql string, binds map[string]any) *Builder[T] {
	b.q.raw = append(b.q.raw, fragment{sql: sql, binds: maps.Clone(binds)})
	return b
}

// Assemble renders the statement and its bind map.
func (b *Builder[T]) Assemble() (string, map[string]any, error) {
	return assemble(b.q)
}

// SQL returns the assembled statement. It panics on invalid builder state;
// use Assemble to get the error instead.
func (b *Builder[T]) SQL() string {
	sql, _, err := assemble(b.q)
	if err != nil {
		panic(err)
	}
	return sql
}

// Binds returns the placeholder values of the assembled statement.
func (b *Builder[T]) Binds() map[string]any {
	_, binds, err := assemble(b.q)
	if err != nil {
		panic(err)
	}
	return binds
}

// String implements fmt.Stringer. Unlike SQL it never panics.
func (b *Builder[T]) String() string {
	sql, _, err := assemble(b.q)
	if err != nil {
		return err.Error()
	}
	return sql
}

// Exec assembles, prepares and executes the statement, binding every
// recorded value.
func (b *Builder[T]) Exec(ctx context.Context) (*Statement, error) {
	sql, binds, err := assemble(b.q)
	if err != nil {
		return nil, err
	}
	stmt := newStatement(b.q.conn, sql, binds)
	if err := stmt.Execute(ctx); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Fetch executes the query and returns the first row. It fails with
// ErrNoRows when the result is empty.
func (b *Builder[T]) Fetch(ctx context.Context) (T, error) {
	var zero T
	stmt, err := b.Exec(ctx)
	if err != nil {
		return zero, err
	}
	row, ok := stmt.FetchOne()
	if !ok {
		return zero, ErrNoRows
	}
	return b.hydrate(row), nil
}

// FetchAll executes the query and returns every row.
func (b *Builder[T]) FetchAll(ctx context.Context) ([]T, error) {
	stmt, err := b.Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows := stmt.FetchAll()
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = b.hydrate(row)
	}
	return out, nil
}

// RowCount executes the statement and returns the number of rows returned
// by a SELECT or affected by a write.
func (b *Builder[T]) RowCount(ctx context.Context) (int64, error) {
	stmt, err := b.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return stmt.RowCount(), nil
}
