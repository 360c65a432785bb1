package db

import "time"

// Config holds database/sql connection parameters.
// All fields are populated from environment variables.
type Config struct {
	// Driver is "mysql" or "sqlite3".
	Driver string `env:"DATABASE_DRIVER" envDefault:"mysql"`

	// Data source name in the driver's format, e.g.
	// user:pass@tcp(localhost:3306)/blog?parseTime=false or file:blog.db.
	DSN string `env:"DATABASE_DSN,required"`

	// Table prefix substituted for {prefix} in query table names.
	Prefix string `env:"DATABASE_TABLE_PREFIX"`

	MigrationsTable string `env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`

	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	MaxConnIdleTime time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"30m"`

	// Linear backoff: attempt n waits n*RetryInterval.
	RetryAttempts int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DATABASE_RETRY_INTERVAL" envDefault:"5s"`
}
