package query

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Value markers recognized in WHERE, INSERT and UPDATE values.
const (
	ValueNow  = "NOW()"
	ValueNull = "NULL"
)

// comparisonRe finds "column <op> ?" comparisons. The column may be table
// qualified and backtick quoted; the operand may be wrapped in parentheses.
var comparisonRe = regexp.MustCompile("(?i)(`?[A-Za-z_{][A-Za-z0-9_{}]*`?(?:\\.`?[A-Za-z_][A-Za-z0-9_]*`?)?)" +
	`(\s*(?:<>|<=|>=|!=|=|<|>)\s*|\s+(?:NOT\s+)?(?:LIKE|IN)\s*|\s+IS(?:\s+NOT)?\s+)` +
	`(\(\s*\?\s*\)|\?)`)

// betweenRe finds "column [NOT] BETWEEN ? AND ?" ranges.
var betweenRe = regexp.MustCompile("(?i)(`?[A-Za-z_{][A-Za-z0-9_{}]*`?(?:\\.`?[A-Za-z_][A-Za-z0-9_]*`?)?)" +
	`(\s+(?:NOT\s+)?BETWEEN\s+)\?(\s+AND\s+)\?`)

var identRe = regexp.MustCompile(`^[A-Za-z_{][A-Za-z0-9_{}]*$`)

var sqlKeywords = map[string]struct{}{
	"NULL": {}, "TRUE": {}, "FALSE": {}, "DISTINCT": {},
	"CURRENT_TIMESTAMP": {}, "CURRENT_DATE": {}, "CURRENT_TIME": {},
}

type assembler struct {
	q       *state
	binds   map[string]any
	used    map[string]struct{}
	aliases map[string]struct{}
	now     time.Time
}

func assemble(q *state) (string, map[string]any, error) {
	fail := func(err error) (string, map[string]any, error) {
		return "", nil, &AssemblyError{Type: q.typ, Table: q.table, Err: err}
	}

	if q.err != nil {
		return fail(q.err)
	}
	if q.table == "" {
		return fail(ErrMissingTable)
	}

	a := &assembler{
		q:       q,
		binds:   make(map[string]any),
		used:    make(map[string]struct{}),
		aliases: make(map[string]struct{}),
		now:     time.Now(),
	}
	if q.conn != nil {
		a.now = q.conn.Now()
	}
	for _, f := range q.raw {
		for name, v := range f.binds {
			a.used[name] = struct{}{}
			a.binds[name] = v
		}
	}

	var (
		b   strings.Builder
		err error
	)
	switch q.typ {
	case Select, SelectDistinct:
		err = a.selectStmt(&b)
	case Insert:
		err = a.insertStmt(&b)
	case Update:
		err = a.updateStmt(&b)
	case Delete:
		err = a.deleteStmt(&b)
	default:
		err = ErrUnknownType
	}
	if err != nil {
		return fail(err)
	}

	out := b.String()
	if q.conn != nil {
		out = q.conn.Table(out)
	}
	return out, a.binds, nil
}

func (a *assembler) selectStmt(b *strings.Builder) error {
	cols := a.q.columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}

	rendered := make([]string, len(cols))
	for i, col := range cols {
		rendered[i] = a.selectColumn(col)
	}

	b.WriteString(a.q.typ.String())
	b.WriteString(" ")
	b.WriteString(strings.Join(rendered, ", "))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(a.q.table))

	for _, j := range a.q.joins {
		b.WriteString(" LEFT JOIN ")
		b.WriteString(quoteIdent(j.table))
		b.WriteString(" ON ")
		b.WriteString(j.on)
	}

	return a.tail(b, true)
}

func (a *assembler) insertStmt(b *strings.Builder) error {
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(a.q.table))

	if len(a.q.values) == 0 {
		if a.dialect() == SQLite {
			b.WriteString(" DEFAULT VALUES")
		} else {
			b.WriteString(" () VALUES ()")
		}
		return nil
	}

	keys := slices.Sorted(maps.Keys(a.q.values))
	cols := make([]string, len(keys))
	vals := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = quoteIdent(k)
		v, err := a.value(a.qualify(k), a.q.values[k])
		if err != nil {
			return err
		}
		vals[i] = v
	}

	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(vals, ", "))
	b.WriteString(")")
	return nil
}

func (a *assembler) updateStmt(b *strings.Builder) error {
	if len(a.q.values) == 0 {
		return ErrNoValues
	}

	keys := slices.Sorted(maps.Keys(a.q.values))
	sets := make([]string, len(keys))
	for i, k := range keys {
		v, err := a.value(a.qualify(k), a.q.values[k])
		if err != nil {
			return err
		}
		sets[i] = quoteIdent(k) + " = " + v
	}

	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(a.q.table))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))

	return a.tail(b, a.dialect() != SQLite)
}

func (a *assembler) deleteStmt(b *strings.Builder) error {
	b.WriteString("DELETE FROM ")
	b.WriteString(quoteIdent(a.q.table))
	return a.tail(b, a.dialect() != SQLite)
}

// tail renders WHERE, raw fragments, ORDER BY and LIMIT. SQLite rejects
// ORDER BY and LIMIT on writes, so they are only rendered when ordered is set.
func (a *assembler) tail(b *strings.Builder, ordered bool) error {
	if err := a.where(b); err != nil {
		return err
	}

	for _, f := range a.q.raw {
		b.WriteString(" ")
		b.WriteString(f.sql)
	}

	if !ordered {
		return nil
	}

	if len(a.q.orders) > 0 {
		terms := make([]string, len(a.q.orders))
		for i, o := range a.q.orders {
			terms[i] = a.orderColumn(o.column) + " " + o.direction
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	if len(a.q.limit) > 0 {
		parts := make([]string, len(a.q.limit))
		for i, n := range a.q.limit {
			parts[i] = strconv.Itoa(n)
		}
		b.WriteString(" LIMIT ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return nil
}

func (a *assembler) where(b *strings.Builder) error {
	scope := make([]string, 0, len(a.q.scope))
	for _, c := range a.q.scope {
		s, err := a.condition(c)
		if err != nil {
			return err
		}
		scope = append(scope, s)
	}

	groups := a.q.groups
	if len(groups) == 0 && len(scope) > 0 {
		groups = [][]condition{nil}
	}
	if len(groups) == 0 {
		return nil
	}

	rendered := make([]string, 0, len(groups))
	for _, g := range groups {
		conds := slices.Clone(scope)
		for _, c := range g {
			s, err := a.condition(c)
			if err != nil {
				return err
			}
			conds = append(conds, s)
		}
		rendered = append(rendered, "("+strings.Join(conds, " AND ")+")")
	}

	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(rendered, " OR "))
	return nil
}

// condition qualifies compared columns and replaces every ? with a named
// placeholder bound to the matching argument.
func (a *assembler) condition(c condition) (string, error) {
	expr := c.expr
	if n := countPlaceholders(expr); n != len(c.args) {
		return "", fmt.Errorf("%w: %q has %d, got %d values", ErrPlaceholderMismatch, expr, n, len(c.args))
	}

	matches := columnMatches(comparisonRe, expr)
	ranges := columnMatches(betweenRe, expr)

	var (
		out     strings.Builder
		argi    int
		mi, ri  int
		inQuote bool
	)
	for pos := 0; pos < len(expr); {
		for mi < len(matches) && matches[mi][0] < pos {
			mi++
		}
		for ri < len(ranges) && ranges[ri][0] < pos {
			ri++
		}

		if !inQuote && ri < len(ranges) && ranges[ri][0] == pos {
			m := ranges[ri]
			ri++

			col := a.qualify(expr[m[2]:m[3]])
			out.WriteString(quoteIdent(col))
			out.WriteString(expr[m[4]:m[5]])
			for i := range 2 {
				if i == 1 {
					out.WriteString(expr[m[6]:m[7]])
				}
				s, err := a.arg(placeholderBase(col), c.args[argi], false)
				if err != nil {
					return "", err
				}
				out.WriteString(s)
				argi++
			}
			pos = m[1]
			continue
		}

		if !inQuote && mi < len(matches) && matches[mi][0] == pos {
			m := matches[mi]
			mi++

			col := a.qualify(expr[m[2]:m[3]])
			out.WriteString(quoteIdent(col))
			out.WriteString(expr[m[4]:m[5]])

			s, err := a.arg(placeholderBase(col), c.args[argi], expr[m[6]] == '(')
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			argi++
			pos = m[1]
			continue
		}

		ch := expr[pos]
		switch {
		case ch == '\'':
			inQuote = !inQuote
		case ch == '?' && !inQuote:
			s, err := a.arg("param", c.args[argi], false)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			argi++
			pos++
			continue
		}
		out.WriteByte(ch)
		pos++
	}

	return out.String(), nil
}

// columnMatches returns the matches of re in expr whose column starts a
// word, so "posts.title" is not also matched as "title".
func columnMatches(re *regexp.Regexp, expr string) [][]int {
	return slices.DeleteFunc(re.FindAllStringSubmatchIndex(expr, -1), func(m []int) bool {
		if m[2] == 0 {
			return false
		}
		prev := expr[m[2]-1]
		return prev == '.' || prev == '`' || isWordByte(prev)
	})
}

// arg renders one condition argument. Slices expand to a parenthesized
// placeholder list; an empty slice renders (NULL) so IN matches nothing.
func (a *assembler) arg(base string, v any, paren bool) (string, error) {
	if isList(v) {
		rv := reflect.ValueOf(v)
		if rv.Len() == 0 {
			return "(NULL)", nil
		}
		items := make([]string, rv.Len())
		for i := range rv.Len() {
			s, err := a.value(base+"_"+strconv.Itoa(i+1), rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "(" + strings.Join(items, ", ") + ")", nil
	}

	s, err := a.value(base, v)
	if err != nil {
		return "", err
	}
	if paren {
		return "(" + s + ")", nil
	}
	return s, nil
}

// value binds v under a fresh placeholder derived from base and returns the
// placeholder. The NULL marker renders as a literal.
func (a *assembler) value(base string, v any) (string, error) {
	if s, ok := v.(string); ok && s == ValueNull {
		return "NULL", nil
	}
	nv, err := a.normalize(v)
	if err != nil {
		return "", err
	}
	name := a.name(base)
	a.binds[name] = nv
	return ":" + name, nil
}

// normalize converts v into a driver-friendly value: timestamps become UTC
// strings and composite values are JSON encoded.
func (a *assembler) normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == ValueNow {
			return a.now.UTC().Format(TimeLayout), nil
		}
		return t, nil
	case time.Time:
		return t.UTC().Format(TimeLayout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC().Format(TimeLayout), nil
	case []byte, driver.Valuer:
		return t, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return a.normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v, nil
}

// name reserves a unique placeholder name, numbering collisions.
func (a *assembler) name(base string) string {
	base = sanitizeName(base)
	name := base
	for i := 2; ; i++ {
		if _, taken := a.used[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	a.used[name] = struct{}{}
	return name
}

func (a *assembler) selectColumn(col string) string {
	expr, alias := splitAlias(col)
	out := a.columnRef(expr)
	if alias != "" {
		a.aliases[alias] = struct{}{}
		out += " AS " + quoteIdent(alias)
	}
	return out
}

func (a *assembler) orderColumn(col string) string {
	col = strings.TrimSpace(col)
	if _, ok := a.aliases[strings.Trim(col, "`")]; ok {
		return quoteIdent(col)
	}
	return a.columnRef(col)
}

// columnRef renders a column reference. Bare names are qualified with the
// target table; function calls get only their identifier arguments quoted.
func (a *assembler) columnRef(expr string) string {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "*":
		return quoteIdent(a.q.table) + ".*"
	case strings.Contains(expr, "("):
		return a.function(expr)
	case isColumnRef(expr):
		return quoteIdent(a.qualify(expr))
	default:
		return expr
	}
}

func (a *assembler) function(expr string) string {
	open := strings.IndexByte(expr, '(')
	end := strings.LastIndexByte(expr, ')')
	if end < open {
		return expr
	}

	args := splitTopLevel(expr[open+1 : end])
	for i, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "*" || arg == "" {
			args[i] = arg
			continue
		}
		args[i] = a.columnRef(arg)
	}
	return expr[:open] + "(" + strings.Join(args, ", ") + ")" + expr[end+1:]
}

func (a *assembler) qualify(ref string) string {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "`", "")
	if strings.Contains(ref, ".") {
		return ref
	}
	return a.q.table + "." + ref
}

func (a *assembler) dialect() Dialect {
	if a.q.conn == nil {
		return MySQL
	}
	return a.q.conn.dialect
}

// quoteIdent backtick-quotes every part of a dotted identifier.
func quoteIdent(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, "`", ""), ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = "`" + p + "`"
		}
	}
	return strings.Join(parts, ".")
}

func isColumnRef(s string) bool {
	parts := strings.Split(strings.ReplaceAll(s, "`", ""), ".")
	if len(parts) > 2 {
		return false
	}
	for i, p := range parts {
		if i == len(parts)-1 && p == "*" && len(parts) == 2 {
			continue
		}
		if !identRe.MatchString(p) {
			return false
		}
		if _, kw := sqlKeywords[strings.ToUpper(p)]; kw {
			return false
		}
	}
	return true
}

func isList(v any) bool {
	switch v.(type) {
	case nil, []byte, string, driver.Valuer:
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// splitAlias splits "expr AS alias" on the last AS, case-insensitively.
func splitAlias(col string) (string, string) {
	col = strings.TrimSpace(col)
	i := strings.LastIndex(strings.ToUpper(col), " AS ")
	if i < 0 {
		return col, ""
	}
	return strings.TrimSpace(col[:i]), strings.Trim(strings.TrimSpace(col[i+4:]), "`")
}

// splitTopLevel splits s on commas outside parentheses and quotes.
func splitTopLevel(s string) []string {
	var (
		out     []string
		depth   int
		start   int
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func countPlaceholders(expr string) int {
	n := 0
	inQuote := false
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\'':
			inQuote = !inQuote
		case '?':
			if !inQuote {
				n++
			}
		}
	}
	return n
}

// placeholderBase derives a placeholder name from a qualified column.
func placeholderBase(col string) string {
	return strings.ReplaceAll(col, ".", "_")
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 128 && isWordByte(byte(r)) {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "param"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "p_" + s
	}
	return s
}
