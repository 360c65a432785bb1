package query

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTable        = errors.New("query: target table is not set")
	ErrPlaceholderMismatch = errors.New("query: placeholder and value counts differ")
	ErrNoValues            = errors.New("query: no values to write")
	ErrInvalidData         = errors.New("query: invalid builder seed data")
	ErrUnknownType         = errors.New("query: unknown statement type")
	ErrNoRows              = errors.New("query: no rows in result set")
	ErrNotExecuted         = errors.New("query: statement has not been executed")
	ErrDuplicateConnection = errors.New("query: connection already registered")
	ErrUnknownConnection   = errors.New("query: unknown connection")
	ErrNoConnections       = errors.New("query: no connections registered")
	ErrUnsupportedDialect  = errors.New("query: unsupported dialect")
)

// AssemblyError reports builder state that cannot be turned into SQL.
// It is a programming error, not a runtime condition.
type AssemblyError struct {
	Type  Type
	Table string
	Err   error
}

func (e *AssemblyError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("query: assemble %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("query: assemble %s `%s`: %v", e.Type, e.Table, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// ExecError wraps a driver failure together with the statement that caused it.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query: %v [sql: %s]", e.Err, e.SQL)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
