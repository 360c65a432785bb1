package router

import (
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// DefaultExtension is the response format used when a request path
// carries no registered extension.
const DefaultExtension = "html"

// Request is the part of an inbound request the router needs.
type Request interface {
	// Path returns the request path.
	Path() string
	// Method returns the HTTP method.
	Method() string
	// URI returns the raw request URI.
	URI() string
}

// Resolved is the outcome of matching a request against the registry.
type Resolved struct {
	Params     map[string]string
	Defaults   map[string]string
	Route      *Route
	Controller string
	Method     string
	Extension  string
	Args       []string
}

// Param returns a captured parameter, falling back to the route defaults.
func (r *Resolved) Param(name string) string {
	if v, ok := r.Params[name]; ok && v != "" {
		return v
	}
	return r.Defaults[name]
}

// Router is an ordered registry of routes. The first registered route whose
// pattern and method match wins.
//
// Registration is not synchronized with matching: finish registering routes
// and tokens before serving requests. Process is safe for concurrent use.
type Router struct {
	routes     []*Route
	root       *Route
	notFound   *Route
	tokens     map[string]string
	extensions []string
	revision   uint64
	mu         sync.RWMutex
}

// Option configures a Router.
type Option func(*Router)

// WithoutDefaultTokens starts the router with an empty token table.
func WithoutDefaultTokens() Option {
	return func(r *Router) {
		clear(r.tokens)
	}
}

// WithExtensions replaces the recognized response extensions.
func WithExtensions(exts ...string) Option {
	return func(r *Router) {
		r.extensions = r.extensions[:0]
		r.addExtensions(exts...)
	}
}

// New creates a router with the default tokens (:id, :slug, :any) and
// response extensions (json, xml, atom, rss).
func New(opts ...Option) *Router {
	r := &Router{
		tokens: map[string]string{
			"id":   `(?P<id>[0-9]+)`,
			"slug": `(?P<slug>[a-z0-9][a-z0-9_-]*)`,
			"any":  `(?P<any>.+)`,
		},
	}
	r.addExtensions("json", "xml", "atom", "rss")
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root registers the route for "/".
func (r *Router) Root(destination string) *Route {
	return r.Route("/", RootName).To(destination)
}

// NotFound registers the fallback route.
func (r *Router) NotFound(destination string) *Route {
	return r.Route("", NotFoundName).To(destination)
}

// Get registers a route answering to GET only.
func (r *Router) Get(pattern string) *Route {
	return r.Route(pattern).Method("GET")
}

// Post registers a route answering to POST only.
func (r *Router) Post(pattern string) *Route {
	return r.Route(pattern).Method("POST")
}

// Route registers a route. The reserved names "root" and "404" assign the
// corresponding slot instead of appending to the ordered list.
func (r *Router) Route(pattern string, name ...string) *Route {
	var n string
	if len(name) > 0 {
		n = name[0]
	}

	rt := newRoute(pattern, n)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch n {
	case RootName:
		r.root = rt
	case NotFoundName:
		r.notFound = rt
	default:
		r.routes = append(r.routes, rt)
	}
	return rt
}

// Resources registers the eight conventional CRUD routes for name,
// dispatching to controller.
func (r *Router) Resources(name, controller string) []*Route {
	base := "/" + strings.Trim(name, "/")
	dest := func(action string) string { return controller + DestinationSeparator + action }

	return []*Route{
		r.Get(base).To(dest("index")),
		r.Get(base + "/new").To(dest("new")),
		r.Post(base).To(dest("create")),
		r.Get(base + "/:id").To(dest("show")),
		r.Get(base + "/:id/edit").To(dest("edit")),
		r.Route(base+"/:id").Method("POST", "PUT", "PATCH").To(dest("save")),
		r.Get(base + "/:id/delete").To(dest("delete")),
		r.Route(base+"/:id/delete").Method("POST", "DELETE").To(dest("destroy")),
	}
}

// RegisterToken maps the placeholder :name to a regular expression fragment.
// Use a named group in the fragment to capture the value.
func (r *Router) RegisterToken(name, fragment string) error {
	name = strings.TrimPrefix(name, ":")
	if name == "" || fragment == "" {
		return ErrEmptyToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[name] = fragment
	r.revision++
	return nil
}

// MustRegisterToken is RegisterToken for route tables declared in code:
// it panics on an invalid token.
func (r *Router) MustRegisterToken(name, fragment string) {
	if err := r.RegisterToken(name, fragment); err != nil {
		panic(err)
	}
}

// RegisterExtension adds recognized response extensions.
func (r *Router) RegisterExtension(exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addExtensions(exts...)
}

func (r *Router) addExtensions(exts ...string) {
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.ToLower(ext), ".")
		if ext != "" && !slices.Contains(r.extensions, ext) {
			r.extensions = append(r.extensions, ext)
		}
	}
	r.revision++
}

// Routes returns the ordered routes, followed by the root and 404 routes
// when registered.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(r.routes)
	if r.root != nil {
		out = append(out, r.root)
	}
	if r.notFound != nil {
		out = append(out, r.notFound)
	}
	return out
}

// Compile builds the matcher of every route, reporting the first invalid
// pattern. Calling it at boot keeps compile errors out of request handling.
func (r *Router) Compile() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if _, err := rt.compile(r.revision, r.tokens, r.extensions); err != nil {
			return &RoutingError{Err: fmt.Errorf("%w: %w", ErrInvalidPattern, err), Pattern: rt.pattern}
		}
	}
	return nil
}

// Process matches req against the registry and resolves its destination.
func (r *Router) Process(req Request) (*Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := NormalizePath(req.Path())

	if r.root != nil && p == "/" {
		return resolve(r.root, nil, nil, r.root.destination, "", req)
	}

	for _, rt := range r.routes {
		m, err := rt.compile(r.revision, r.tokens, r.extensions)
		if err != nil {
			return nil, &RoutingError{Err: fmt.Errorf("%w: %w", ErrInvalidPattern, err), Method: req.Method(), Path: p, Pattern: rt.pattern}
		}

		sub := m.FindStringSubmatchIndex(p)
		if sub == nil {
			continue
		}
		if !rt.Allows(req.Method()) {
			continue
		}

		params := captures(m, p, sub)
		dest := string(m.ExpandString(nil, rt.destination, p, sub))
		return resolve(rt, m, params, dest, params["extension"], req)
	}

	return r.fallback(req, p)
}

// ResolveNotFound resolves the 404 route for req. It fails with
// ErrNoNotFoundRoute when no 404 route is registered.
func (r *Router) ResolveNotFound(req Request) (*Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.notFound == nil {
		return nil, &RoutingError{Err: ErrNoNotFoundRoute, Method: req.Method(), Path: NormalizePath(req.Path())}
	}
	return r.fallback(req, NormalizePath(req.Path()))
}

func (r *Router) fallback(req Request, p string) (*Resolved, error) {
	if r.notFound == nil {
		return nil, &RoutingError{Err: ErrNoRoute, Method: req.Method(), Path: p}
	}
	return resolve(r.notFound, nil, nil, r.notFound.destination, r.sniffExtension(req.URI()), req)
}

// sniffExtension extracts a registered extension from a raw request URI.
func (r *Router) sniffExtension(uri string) string {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	ext := strings.TrimPrefix(path.Ext(uri), ".")
	if slices.Contains(r.extensions, strings.ToLower(ext)) {
		return strings.ToLower(ext)
	}
	return ""
}

func resolve(rt *Route, m *regexp.Regexp, params map[string]string, dest, ext string, req Request) (*Resolved, error) {
	controller, method, ok := strings.Cut(dest, DestinationSeparator)
	if !ok || controller == "" || method == "" {
		return nil, &RoutingError{Err: ErrInvalidDestination, Method: req.Method(), Path: req.Path(), Pattern: rt.pattern}
	}

	if params == nil {
		params = make(map[string]string)
	}
	delete(params, "extension")

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}

	args := make([]string, len(rt.args))
	for i, a := range rt.args {
		switch {
		case m != nil && slices.Contains(m.SubexpNames(), a):
			args[i] = params[a]
		case rt.defaults[a] != "":
			args[i] = rt.defaults[a]
		default:
			args[i] = a
		}
	}

	return &Resolved{
		Route:      rt,
		Controller: controller,
		Method:     method,
		Params:     params,
		Defaults:   maps.Clone(rt.defaults),
		Extension:  ext,
		Args:       args,
	}, nil
}

// captures collects named groups, and positional groups under their index.
func captures(m *regexp.Regexp, s string, sub []int) map[string]string {
	params := make(map[string]string)
	for i, name := range m.SubexpNames() {
		if i == 0 || sub[2*i] < 0 {
			continue
		}
		if name == "" {
			name = strconv.Itoa(i)
		}
		params[name] = s[sub[2*i]:sub[2*i+1]]
	}
	return params
}

// NormalizePath returns p with exactly one leading slash and no trailing slash.
func NormalizePath(p string) string {
	p = "/" + strings.TrimLeft(p, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
