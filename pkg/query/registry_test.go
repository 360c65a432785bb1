package query_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/query"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("first connection is the default", func(t *testing.T) {
		t.Parallel()

		r := query.NewRegistry()
		_, err := r.Default()
		require.ErrorIs(t, err, query.ErrNoConnections)

		primary := newConn(t)
		replica := newConn(t)
		require.NoError(t, r.Add("primary", primary))
		require.NoError(t, r.Add("replica", replica))

		def, err := r.Default()
		require.NoError(t, err)
		require.Same(t, primary, def)
		require.Equal(t, "primary", def.Name())

		got, err := r.Lookup("replica")
		require.NoError(t, err)
		require.Same(t, replica, got)

		got, err = r.Lookup("")
		require.NoError(t, err)
		require.Same(t, primary, got)

		require.Equal(t, []string{"primary", "replica"}, r.Names())
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		t.Parallel()

		r := query.NewRegistry()
		require.NoError(t, r.Add("main", newConn(t)))
		require.ErrorIs(t, r.Add("main", newConn(t)), query.ErrDuplicateConnection)
	})

	t.Run("unknown names", func(t *testing.T) {
		t.Parallel()

		r := query.NewRegistry()
		_, err := r.Get("nope")
		require.ErrorIs(t, err, query.ErrUnknownConnection)
	})
}

func TestNewConn_UnsupportedDialect(t *testing.T) {
	t.Parallel()

	_, err := query.NewConn(nil, query.WithDialect("postgres"))
	require.ErrorIs(t, err, query.ErrUnsupportedDialect)
}

func TestConn_Describe(t *testing.T) {
	t.Parallel()

	t.Run("mysql", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectPrepare("SHOW COLUMNS FROM `posts`").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
				AddRow("id", "int(11)", "NO", "PRI", nil, "auto_increment").
				AddRow("title", "varchar(255)", "YES", "", "untitled", ""))

		cols, err := c.Describe(context.Background(), "posts")
		require.NoError(t, err)
		require.Len(t, cols, 2)
		require.True(t, cols[0].Primary())
		require.False(t, cols[0].Nullable)
		require.Equal(t, "auto_increment", cols[0].Extra)
		require.Equal(t, "title", cols[1].Name)
		require.True(t, cols[1].Nullable)
		require.Equal(t, "untitled", cols[1].Default)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t, query.WithDialect(query.SQLite), query.WithPrefix("app_"))
		mock.ExpectPrepare("PRAGMA table_info(`app_posts`)").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
				AddRow(int64(0), "id", "INTEGER", int64(1), nil, int64(1)).
				AddRow(int64(1), "title", "TEXT", int64(0), nil, int64(0)))

		cols, err := c.Describe(context.Background(), "{prefix}posts")
		require.NoError(t, err)
		require.Len(t, cols, 2)
		require.Equal(t, "id", cols[0].Name)
		require.True(t, cols[0].Primary())
		require.Equal(t, "auto_increment", cols[0].Extra)
		require.False(t, cols[0].Nullable)
		require.True(t, cols[1].Nullable)
		require.False(t, cols[1].Primary())
	})
}
