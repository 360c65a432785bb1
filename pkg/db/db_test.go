package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/db"
	"github.com/dmitrymomot/mvc/pkg/logger"
)

var migrations = fstest.MapFS{
	"00001_create_posts.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	slug TEXT NOT NULL UNIQUE
);

-- +goose Down
DROP TABLE posts;
`)},
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.Config{
		Driver:        db.DriverSQLite,
		DSN:           fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		RetryAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite, migrations, "schema_migrations", logger.NewNope()))
	return conn
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("unsupported driver", func(t *testing.T) {
		t.Parallel()

		_, err := db.Open(context.Background(), db.Config{Driver: "postgres", DSN: "x"})
		require.ErrorIs(t, err, db.ErrUnsupportedDriver)
	})

	t.Run("sqlite healthcheck and shutdown", func(t *testing.T) {
		t.Parallel()

		conn, err := db.Open(context.Background(), db.Config{Driver: db.DriverSQLite, DSN: ":memory:"})
		require.NoError(t, err)
		require.NoError(t, db.Healthcheck(conn)(context.Background()))

		require.NoError(t, db.Shutdown(conn)(context.Background()))
		require.ErrorIs(t, db.Healthcheck(conn)(context.Background()), db.ErrHealthcheckFailed)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := db.Open(ctx, db.Config{
			Driver:        db.DriverMySQL,
			DSN:           "user:pass@tcp(127.0.0.1:1)/none",
			RetryAttempts: 3,
		})
		require.ErrorIs(t, err, db.ErrFailedToOpenDBConnection)
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	conn := openSQLite(t)

	// Applying again is a no-op.
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite, migrations, "schema_migrations", logger.NewNope()))

	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&n))
	require.Zero(t, n)

	err := db.Migrate(context.Background(), conn, "oracle", migrations, "schema_migrations", logger.NewNope())
	require.ErrorIs(t, err, db.ErrSetDialect)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	conn := openSQLite(t)
	ctx := context.Background()

	count := func() int {
		var n int
		require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&n))
		return n
	}

	t.Run("commits", func(t *testing.T) {
		err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO posts (slug) VALUES ('a')")
			return err
		})
		require.NoError(t, err)
		require.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.Exec("INSERT INTO posts (slug) VALUES ('b')"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, 1, count())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		require.Panics(t, func() {
			_ = db.WithTx(ctx, conn, func(tx *sql.Tx) error {
				_, _ = tx.Exec("INSERT INTO posts (slug) VALUES ('c')")
				panic("boom")
			})
		})
		require.Equal(t, 1, count())
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := conn.Exec("INSERT INTO posts (slug) VALUES ('a')")
		require.Error(t, err)
		require.True(t, db.IsUniqueViolation(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	require.False(t, db.IsUniqueViolation(nil))
	require.False(t, db.IsUniqueViolation(errors.New("syntax error")))
	require.True(t, db.IsUniqueViolation(fmt.Errorf("save: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})))
	require.False(t, db.IsUniqueViolation(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}))
}
