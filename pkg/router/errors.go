package router

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoute            = errors.New("router: no route matches the request")
	ErrNoNotFoundRoute    = errors.New("router: no 404 route registered")
	ErrInvalidDestination = errors.New("router: invalid route destination")
	ErrInvalidPattern     = errors.New("router: invalid route pattern")
	ErrEmptyToken         = errors.New("router: token name and fragment cannot be empty")
)

// RoutingError describes a request that could not be resolved.
// It is fatal for the request being processed.
type RoutingError struct {
	Err     error
	Method  string
	Path    string
	Pattern string
}

func (e *RoutingError) Error() string {
	msg := e.Err.Error()
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Method, e.Path)
	}
	if e.Pattern != "" {
		msg += " pattern " + e.Pattern
	}
	return msg
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}

// IsRoutingError reports whether err is, or wraps, a RoutingError.
func IsRoutingError(err error) bool {
	var re *RoutingError
	return errors.As(err, &re)
}
