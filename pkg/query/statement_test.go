package query_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gandaldf/sqlr"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/query"
)

func newMockConn(t *testing.T, opts ...query.ConnOption) (*query.Conn, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c, err := query.NewConn(db, opts...)
	require.NoError(t, err)
	return c, mock
}

func TestBuilder_FetchAll(t *testing.T) {
	t.Parallel()

	c, mock := newMockConn(t)
	mock.ExpectPrepare("SELECT `posts`.`id`, `posts`.`title` FROM `posts` WHERE (`posts`.`title` = ?) OR (`posts`.`views` = ?)").
		ExpectQuery().
		WithArgs("", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(int64(1), []byte("Hello")).
			AddRow(int64(2), "World"))

	rows, err := c.Select("id", "title").From("posts").
		Where("title = ?", "").
		Where("views = ?", 0).
		FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0]["id"])
	require.Equal(t, "Hello", rows[0]["title"])
	require.Equal(t, "World", rows[1]["title"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("hydrates the first row", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectPrepare("SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` = ?) LIMIT 1").
			ExpectQuery().
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(7), "Seven"))

		type post struct {
			ID    int64
			Title string
		}
		b := query.Hydrate(c.Select().From("posts").Where("id = ?", 7).Limit(1), func(r query.Row) post {
			return post{ID: r["id"].(int64), Title: r["title"].(string)}
		})

		p, err := b.Fetch(context.Background())
		require.NoError(t, err)
		require.Equal(t, post{ID: 7, Title: "Seven"}, p)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports empty results", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectPrepare("SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` = ?)").
			ExpectQuery().
			WithArgs(404).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := c.Select().From("posts").Where("id = ?", 404).Fetch(context.Background())
		require.ErrorIs(t, err, query.ErrNoRows)
		require.True(t, query.IsNoRows(err))
	})
}

func TestBuilder_Exec(t *testing.T) {
	t.Parallel()

	t.Run("insert reports the generated id", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectPrepare("INSERT INTO `posts` (`title`, `views`) VALUES (?, ?)").
			ExpectExec().
			WithArgs("Hello", 0).
			WillReturnResult(sqlmock.NewResult(42, 1))

		stmt, err := c.Insert(map[string]any{"title": "Hello", "views": 0}).Into("posts").Exec(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(42), stmt.LastInsertID())
		require.Equal(t, int64(1), stmt.RowCount())
		require.True(t, stmt.Executed())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row count of a delete", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectPrepare("DELETE FROM `posts` WHERE (`posts`.`id` = ?) LIMIT 1").
			ExpectExec().
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := c.Delete().From("posts").Where("id = ?", 3).Limit(1).RowCount(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("driver failures carry the statement", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		boom := errors.New("boom")
		mock.ExpectPrepare("SELECT `posts`.* FROM `posts`").WillReturnError(boom)

		_, err := c.Select().From("posts").FetchAll(context.Background())
		require.ErrorIs(t, err, boom)

		var ee *query.ExecError
		require.ErrorAs(t, err, &ee)
		require.Equal(t, "SELECT `posts`.* FROM `posts`", ee.SQL)
	})

	t.Run("assembly errors never reach the driver", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		_, err := c.Update("posts").Exec(context.Background())
		require.ErrorIs(t, err, query.ErrNoValues)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatement(t *testing.T) {
	t.Parallel()

	t.Run("missing bind fails before the driver", func(t *testing.T) {
		t.Parallel()

		c, _ := newMockConn(t)
		err := c.Prepare("SELECT * FROM t WHERE id = :id").Execute(context.Background())
		require.ErrorIs(t, err, sqlr.ErrParamMissing)
	})

	t.Run("binds by name and buffers rows", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t, query.WithPrefix("app_"))
		mock.ExpectPrepare("SELECT * FROM app_t WHERE id = ? OR id = ?").
			ExpectQuery().
			WithArgs(1, 2).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

		stmt := c.Prepare("SELECT * FROM {prefix}t WHERE id = :a OR id = :b").
			BindValue(":a", 1).
			BindValue("b", 2)
		require.ErrorIs(t, stmt.Err(), query.ErrNotExecuted)
		require.NoError(t, stmt.Execute(context.Background()))
		require.NoError(t, stmt.Err())

		require.Equal(t, int64(2), stmt.RowCount())

		first, ok := stmt.FetchOne()
		require.True(t, ok)
		require.Equal(t, int64(1), first["id"])

		rest := stmt.FetchAll()
		require.Len(t, rest, 1)

		_, ok = stmt.FetchOne()
		require.False(t, ok)
		require.Empty(t, stmt.FetchAll())
	})

	t.Run("works inside a transaction", func(t *testing.T) {
		t.Parallel()

		c, mock := newMockConn(t)
		mock.ExpectBegin()
		mock.ExpectPrepare("UPDATE `posts` SET `title` = ? WHERE (`posts`.`id` = ?)").
			ExpectExec().
			WithArgs("T", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		db := c.DB().(*sql.DB)
		tx, err := db.BeginTx(context.Background(), nil)
		require.NoError(t, err)

		n, err := c.WithDB(tx).Update("posts").
			Set(map[string]any{"title": "T"}).
			Where("id = ?", 1).
			RowCount(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
