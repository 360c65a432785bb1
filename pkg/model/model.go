package model

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dmitrymomot/mvc/pkg/query"
)

// Model is a Definition bound to a Store and a connection.
type Model struct {
	store *Store
	def   *Definition
	conn  *query.Conn
}

// Name returns the model name.
func (m *Model) Name() string { return m.def.Name }

// Table returns the table name as defined, {prefix} included.
func (m *Model) Table() string { return m.def.Table }

// PrimaryKey returns the primary key column.
func (m *Model) PrimaryKey() string { return m.def.PrimaryKey }

// Conn returns the connection the model queries.
func (m *Model) Conn() *query.Conn { return m.conn }

// Store returns the owning store.
func (m *Model) Store() *Store { return m.store }

// WithConn returns the model bound to conn, typically a connection wrapping
// a transaction:
//
//	db.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
//		posts := posts.WithConn(posts.Conn().WithDB(tx))
//		...
//	})
func (m *Model) WithConn(conn *query.Conn) *Model {
	return &Model{store: m.store, def: m.def, conn: conn}
}

// New returns an unsaved record holding a copy of data.
func (m *Model) New(data map[string]any) *Record {
	r := m.record(true)
	maps.Copy(r.data, data)
	return r
}

// Load wraps a fetched row in a persisted record. Timestamp columns are
// converted from stored UTC to the store location.
func (m *Model) Load(row query.Row) *Record {
	r := m.record(false)
	maps.Copy(r.data, row)
	if m.def.Timestamps {
		for _, col := range []string{CreatedAt, UpdatedAt} {
			if v, ok := r.data[col]; ok {
				r.data[col] = m.localTime(v)
			}
		}
	}
	return r
}

func (m *Model) record(isNew bool) *Record {
	return &Record{
		model:     m,
		data:      make(map[string]any),
		isNew:     isNew,
		errors:    make(Errors),
		relations: make(map[string]any),
	}
}

func (m *Model) localTime(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.In(m.store.loc)
	case string:
		ts, err := time.ParseInLocation(query.TimeLayout, t, time.UTC)
		if err != nil {
			return v
		}
		return ts.In(m.store.loc)
	default:
		return v
	}
}

// Schema returns the table columns. The table is described once per
// process (or per shared cache) and served from cache afterwards.
func (m *Model) Schema(ctx context.Context) ([]query.Column, error) {
	return m.store.schema(ctx, m.conn, m.def.Table)
}

// Select starts a query on the model table whose rows hydrate into records.
func (m *Model) Select(cols ...string) *query.Builder[*Record] {
	return query.Hydrate(m.conn.Select(cols...).From(m.def.Table), m.Load)
}

// Find returns the record with primary key id.
func (m *Model) Find(ctx context.Context, id any) (*Record, error) {
	return m.FindBy(ctx, m.def.PrimaryKey, id)
}

// FindBy returns the first record whose column equals v.
func (m *Model) FindBy(ctx context.Context, column string, v any) (*Record, error) {
	r, err := m.Select().Where(column+" = ?", v).Limit(1).Fetch(ctx)
	if errors.Is(err, query.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s=%v", ErrRecordNotFound, m.def.Name, column, v)
	}
	return r, err
}

// All returns every record of the table.
func (m *Model) All(ctx context.Context) ([]*Record, error) {
	return m.Select().FetchAll(ctx)
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
