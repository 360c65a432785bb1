package internal

import "net/http"

// HandlerFunc is the signature of controller actions and filters.
// Returning a non-nil error stops the dispatch and triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps the whole HTTP pipeline; it runs in the chi mux before
// the request reaches the dispatcher.
type Middleware = func(next http.Handler) http.Handler

// ErrorHandler handles errors returned from actions and filters.
type ErrorHandler func(Context, error) error
