package query

import (
	"context"
	"fmt"
	"strings"
)

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  any
	Key      string
	Extra    string
}

// Primary reports whether the column is part of the primary key.
func (c Column) Primary() bool { return c.Key == "PRI" }

// Describe returns the columns of table in declaration order.
func (c *Conn) Describe(ctx context.Context, table string) ([]Column, error) {
	switch c.dialect {
	case MySQL:
		return c.describeMySQL(ctx, table)
	case SQLite:
		return c.describeSQLite(ctx, table)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, c.dialect)
	}
}

func (c *Conn) describeMySQL(ctx context.Context, table string) ([]Column, error) {
	stmt := c.Prepare("SHOW COLUMNS FROM " + quoteIdent(table))
	if err := stmt.Execute(ctx); err != nil {
		return nil, err
	}

	rows := stmt.FetchAll()
	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, Column{
			Name:     asString(row["Field"]),
			Type:     asString(row["Type"]),
			Nullable: strings.EqualFold(asString(row["Null"]), "YES"),
			Default:  row["Default"],
			Key:      asString(row["Key"]),
			Extra:    asString(row["Extra"]),
		})
	}
	return cols, nil
}

func (c *Conn) describeSQLite(ctx context.Context, table string) ([]Column, error) {
	stmt := c.Prepare("PRAGMA table_info(" + quoteIdent(table) + ")")
	if err := stmt.Execute(ctx); err != nil {
		return nil, err
	}

	rows := stmt.FetchAll()
	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		col := Column{
			Name:     asString(row["name"]),
			Type:     asString(row["type"]),
			Nullable: asString(row["notnull"]) == "0",
			Default:  row["dflt_value"],
		}
		if pk := asString(row["pk"]); pk != "" && pk != "0" {
			col.Key = "PRI"
			if strings.EqualFold(col.Type, "INTEGER") {
				col.Extra = "auto_increment"
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
