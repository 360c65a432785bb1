package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Open opens a connection pool for cfg.Driver and pings it, retrying with
// linear backoff until cfg.RetryAttempts is exhausted or ctx is done.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Driver != DriverMySQL && cfg.Driver != DriverSQLite {
		return nil, errors.Join(ErrUnsupportedDriver, errors.New(cfg.Driver))
	}

	var lastErr error
	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
			case <-time.After(time.Duration(i) * cfg.RetryInterval):
			}
		}

		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			lastErr = err
			continue
		}
		configure(db, cfg)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			lastErr = err
			continue
		}
		return db, nil
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

func configure(db *sql.DB, cfg Config) {
	if cfg.Driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
}

// Healthcheck returns a probe that pings db.
func Healthcheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a hook that closes db.
//
//	app := mvc.New(mvc.WithShutdownHook(db.Shutdown(conn)))
func Shutdown(db *sql.DB) func(context.Context) error {
	return func(context.Context) error {
		return db.Close()
	}
}

// WithTx executes fn within a transaction.
// It rolls back when fn returns an error or panics, and commits otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// IsUniqueViolation reports whether err is a duplicate-key error from
// MySQL (1062) or SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
