package router

import (
	"context"
	"net/http"
)

type resolvedKey struct{}

// WithResolved stores the resolved route of the current request in ctx.
func WithResolved(ctx context.Context, r *Resolved) context.Context {
	return context.WithValue(ctx, resolvedKey{}, r)
}

// FromContext returns the resolved route stored by WithResolved.
func FromContext(ctx context.Context) (*Resolved, bool) {
	r, ok := ctx.Value(resolvedKey{}).(*Resolved)
	return r, ok && r != nil
}

// HTTPRequest adapts *http.Request to Request.
type HTTPRequest struct {
	R *http.Request
}

func (h HTTPRequest) Path() string   { return h.R.URL.Path }
func (h HTTPRequest) Method() string { return h.R.Method }
func (h HTTPRequest) URI() string    { return h.R.RequestURI }
