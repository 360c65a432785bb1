package query

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Statement is a prepared statement with named placeholders. Values are
// bound by name and converted to driver arguments on Execute. Result rows
// are buffered so the driver statement is released before Execute returns.
type Statement struct {
	conn     *Conn
	sql      string
	binds    map[string]any
	rows     []Row
	cursor   int
	affected int64
	lastID   int64
	executed bool
}

func newStatement(c *Conn, sql string, binds map[string]any) *Statement {
	s := &Statement{conn: c, sql: sql, binds: make(map[string]any, len(binds))}
	maps.Copy(s.binds, binds)
	return s
}

// SQL returns the statement text with named placeholders.
func (s *Statement) SQL() string { return s.sql }

// Binds returns a copy of the bound values.
func (s *Statement) Binds() map[string]any { return maps.Clone(s.binds) }

// BindValue binds v to the :name placeholder. A leading colon is optional.
func (s *Statement) BindValue(name string, v any) *Statement {
	s.binds[strings.TrimPrefix(name, ":")] = v
	return s
}

// Execute runs the statement. Statements returning rows have every row
// read into memory; others record the affected row count and last insert id.
func (s *Statement) Execute(ctx context.Context) error {
	start := time.Now()
	log := s.conn.logger

	positional, args, err := s.conn.binder.Write(s.sql).Bind(s.binds).Build()
	if err != nil {
		log.ErrorContext(ctx, "failed to bind statement", "conn", s.conn.name, "sql", s.sql, "error", err)
		return &ExecError{SQL: s.sql, Err: err}
	}

	if err := s.run(ctx, positional, args); err != nil {
		log.ErrorContext(ctx, "statement failed",
			"conn", s.conn.name,
			"sql", s.sql,
			"duration", time.Since(start),
			"error", err,
		)
		return &ExecError{SQL: s.sql, Err: err}
	}

	s.executed = true
	log.DebugContext(ctx, "statement executed",
		"conn", s.conn.name,
		"sql", s.sql,
		"rows", s.RowCount(),
		"duration", time.Since(start),
	)
	return nil
}

func (s *Statement) run(ctx context.Context, positional string, args []any) error {
	stmt, err := s.conn.db.PrepareContext(ctx, positional)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if !returnsRows(positional) {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return err
		}
		s.affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		// Drivers without last insert ids report an error here; zero is fine.
		s.lastID, _ = res.LastInsertId()
		return nil
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	s.rows = s.rows[:0]
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		s.rows = append(s.rows, row)
	}
	s.cursor = 0
	s.affected = int64(len(s.rows))
	return rows.Err()
}

// FetchOne returns the next buffered row.
func (s *Statement) FetchOne() (Row, bool) {
	if s.cursor >= len(s.rows) {
		return nil, false
	}
	row := s.rows[s.cursor]
	s.cursor++
	return row, true
}

// FetchAll returns the remaining buffered rows.
func (s *Statement) FetchAll() []Row {
	if s.cursor >= len(s.rows) {
		return []Row{}
	}
	rows := s.rows[s.cursor:]
	s.cursor = len(s.rows)
	return rows
}

// RowCount returns the rows returned by a query or affected by a write.
func (s *Statement) RowCount() int64 { return s.affected }

// LastInsertID returns the id generated by an INSERT.
func (s *Statement) LastInsertID() int64 { return s.lastID }

// Executed reports whether Execute succeeded.
func (s *Statement) Executed() bool { return s.executed }

// Err returns ErrNotExecuted until the statement ran successfully.
func (s *Statement) Err() error {
	if !s.executed {
		return ErrNotExecuted
	}
	return nil
}

var rowKeywords = []string{"SELECT", "SHOW", "PRAGMA", "WITH", "DESCRIBE", "DESC", "EXPLAIN", "VALUES"}

func returnsRows(sql string) bool {
	head := strings.TrimLeft(sql, " \t\r\n(")
	if i := strings.IndexAny(head, " \t\r\n("); i >= 0 {
		head = head[:i]
	}
	for _, kw := range rowKeywords {
		if strings.EqualFold(head, kw) {
			return true
		}
	}
	return strings.Contains(strings.ToUpper(sql), " RETURNING ")
}

// IsNoRows reports whether err means an empty result.
func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}
