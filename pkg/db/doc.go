// Package db opens and maintains database/sql connection pools for the
// MySQL (github.com/go-sql-driver/mysql) and SQLite
// (github.com/mattn/go-sqlite3) drivers, both registered on import.
//
// # Configuration
//
// [Config] is loaded from environment variables:
//
//	DATABASE_DRIVER             - mysql or sqlite3 (default: mysql)
//	DATABASE_DSN                - driver data source name (required)
//	DATABASE_TABLE_PREFIX       - replaces {prefix} in table names
//	DATABASE_MAX_OPEN_CONNS     - maximum open connections (default: 10)
//	DATABASE_MAX_IDLE_CONNS     - maximum idle connections (default: 5)
//	DATABASE_MAX_CONN_IDLE_TIME - maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - base retry interval (default: 5s)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: schema_migrations)
//
// # Usage
//
//	conn, err := db.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	app := mvc.New(
//		mvc.WithShutdownHook(db.Shutdown(conn)),
//	)
//
// [Healthcheck] returns a ping probe, [WithTx] runs a function inside a
// transaction and [Migrate] applies goose migrations from an fs.FS.
//
// [IsUniqueViolation] recognizes duplicate-key errors of both drivers; the
// model layer uses it to turn a constraint failure into a validation error.
package db
