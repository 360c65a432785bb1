package query

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/gandaldf/sqlr"
)

// TimeLayout is the storage format of timestamps bound by the builder.
const TimeLayout = "2006-01-02 15:04:05"

// PrefixToken is replaced with the connection table prefix in assembled SQL.
const PrefixToken = "{prefix}"

// Dialect names the SQL flavour spoken by a connection. Both supported
// dialects accept backtick-quoted identifiers.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite3"
)

func (d Dialect) binder() (*sqlr.SQLR, error) {
	switch d {
	case MySQL:
		return sqlr.New(sqlr.MySQL), nil
	case SQLite:
		return sqlr.New(sqlr.SQLite), nil
	default:
		return nil, ErrUnsupportedDialect
	}
}

// DB is the driver capability a connection executes statements on.
// Both *sql.DB and *sql.Tx satisfy it.
type DB interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Conn is a named database connection that hands out query builders.
type Conn struct {
	name    string
	db      DB
	dialect Dialect
	prefix  string
	logger  *slog.Logger
	now     func() time.Time
	binder  *sqlr.SQLR
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithDialect sets the SQL dialect. Defaults to MySQL.
func WithDialect(d Dialect) ConnOption {
	return func(c *Conn) {
		c.dialect = d
	}
}

// WithPrefix sets the table prefix substituted for {prefix}.
func WithPrefix(prefix string) ConnOption {
	return func(c *Conn) {
		c.prefix = prefix
	}
}

// WithLogger sets the logger used for statement tracing.
func WithLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used to resolve the NOW() value marker.
func WithClock(now func() time.Time) ConnOption {
	return func(c *Conn) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConn wraps db. It fails only for an unsupported dialect.
func NewConn(db DB, opts ...ConnOption) (*Conn, error) {
	c := &Conn{
		name:    "default",
		db:      db,
		dialect: MySQL,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	b, err := c.dialect.binder()
	if err != nil {
		return nil, err
	}
	c.binder = b
	return c, nil
}

// Name returns the registry name of the connection.
func (c *Conn) Name() string { return c.name }

// Dialect returns the connection dialect.
func (c *Conn) Dialect() Dialect { return c.dialect }

// Prefix returns the table prefix.
func (c *Conn) Prefix() string { return c.prefix }

// Logger returns the connection logger.
func (c *Conn) Logger() *slog.Logger { return c.logger }

// DB returns the underlying handle.
func (c *Conn) DB() DB { return c.db }

// Now returns the current time according to the connection clock.
func (c *Conn) Now() time.Time { return c.now() }

// Table returns name with the {prefix} token resolved.
func (c *Conn) Table(name string) string {
	return strings.ReplaceAll(name, PrefixToken, c.prefix)
}

// WithDB returns a copy of the connection executing on db, typically a
// transaction started on the original handle.
func (c *Conn) WithDB(db DB) *Conn {
	cp := *c
	cp.db = db
	return &cp
}

// Select starts a SELECT of cols, or of every column when cols is empty.
func (c *Conn) Select(cols ...string) *Builder[Row] {
	return New(c, Select, cols)
}

// SelectDistinct starts a SELECT DISTINCT of cols.
func (c *Conn) SelectDistinct(cols ...string) *Builder[Row] {
	return New(c, SelectDistinct, cols)
}

// Insert starts an INSERT of values.
func (c *Conn) Insert(values map[string]any) *Builder[Row] {
	return New(c, Insert, values)
}

// Update starts an UPDATE of table.
func (c *Conn) Update(table string) *Builder[Row] {
	return New(c, Update, table)
}

// Delete starts a DELETE.
func (c *Conn) Delete() *Builder[Row] {
	return New(c, Delete, nil)
}

// Prepare wraps raw SQL with :name placeholders into a Statement.
func (c *Conn) Prepare(sql string) *Statement {
	return newStatement(c, c.Table(sql), nil)
}
