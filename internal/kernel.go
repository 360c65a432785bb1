package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/logger"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/router"
	"github.com/dmitrymomot/mvc/pkg/view"
)

// Kernel dispatches requests: it resolves the route, builds the
// controller, runs its filters around the action and finalizes the
// response. It is an http.Handler.
type Kernel struct {
	router       *router.Router
	controllers  map[string]ControllerFactory
	views        *view.Renderer
	catalog      *i18n.Catalog
	store        *model.Store
	language     Extractor
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithKernelViews sets the renderer used by Context.Render.
func WithKernelViews(v *view.Renderer) KernelOption {
	return func(k *Kernel) { k.views = v }
}

// WithCatalog sets the translations used by Context.T.
func WithCatalog(c *i18n.Catalog) KernelOption {
	return func(k *Kernel) { k.catalog = c }
}

// WithStore sets the model store used by Context.Model.
func WithStore(s *model.Store) KernelOption {
	return func(k *Kernel) { k.store = s }
}

// WithLanguageExtractor sets where an explicit request language is read
// from before Accept-Language is consulted.
func WithLanguageExtractor(e Extractor) KernelOption {
	return func(k *Kernel) { k.language = e }
}

// WithKernelErrorHandler sets the handler of action and filter errors.
func WithKernelErrorHandler(h ErrorHandler) KernelOption {
	return func(k *Kernel) { k.errorHandler = h }
}

// WithKernelLogger sets the dispatch logger.
func WithKernelLogger(l *slog.Logger) KernelOption {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKernel creates a dispatcher over rt.
func NewKernel(rt *router.Router, opts ...KernelOption) *Kernel {
	k := &Kernel{
		router:      rt,
		controllers: make(map[string]ControllerFactory),
		logger:      logger.NewNope(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Register adds a controller factory under name, the controller part of
// route destinations. Names are matched case-insensitively.
func (k *Kernel) Register(name string, factory ControllerFactory) error {
	key := foldName(name)
	if key == "" || factory == nil {
		return fmt.Errorf("%w: %q", ErrUnknownController, name)
	}
	if _, ok := k.controllers[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateController, name)
	}
	k.controllers[key] = factory
	return nil
}

// Controllers returns the registered controller names, folded and sorted.
func (k *Kernel) Controllers() []string {
	names := make([]string, 0, len(k.controllers))
	for name := range k.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Router returns the route registry.
func (k *Kernel) Router() *router.Router { return k.router }

// ServeHTTP drives one request through routing, filters and the action.
func (k *Kernel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rw := NewResponseWriter(w)

	res, err := k.router.Process(router.HTTPRequest{R: r})
	if err != nil {
		if errors.Is(err, router.ErrNoRoute) {
			k.logger.ErrorContext(r.Context(), "no route and no 404 route registered",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			http.NotFound(rw, r)
			return
		}
		k.logger.ErrorContext(r.Context(), "routing failed", slog.Any("error", err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if res.Route != nil && res.Route.Name() == router.NotFoundName {
		rw.defaultStatus(http.StatusNotFound)
	}

	c := newContext(k, rw, r, res)
	if err := k.dispatch(c); err != nil {
		k.handleError(c, err)
	}

	if !rw.Written() {
		rw.WriteHeader(http.StatusNoContent)
	}

	k.logger.InfoContext(c.request.Context(), "dispatch",
		slog.String("controller", res.Controller),
		slog.String("action", res.Method),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rw.Status()),
		slog.Duration("duration", time.Since(start)),
	)
}

// dispatch instantiates the controller and runs the filter chain.
func (k *Kernel) dispatch(c *requestContext) error {
	res := c.resolved

	factory, ok := k.controllers[foldName(res.Controller)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownController, res.Controller)
	}
	ctrl := factory()
	if ctrl == nil {
		return fmt.Errorf("%w: %s factory returned nil", ErrUnknownController, res.Controller)
	}

	action, ok := lookupAction(ctrl.Actions(), res.Method)
	if !ok {
		return fmt.Errorf("%w: %s::%s", ErrUnknownAction, res.Controller, res.Method)
	}

	var filters Filters
	if fc, ok := ctrl.(FilteredController); ok {
		filters = fc.Filters()
	}

	for _, f := range filters.Before {
		if !f.Applies(res.Method) {
			continue
		}
		if err := f.fn(c); err != nil {
			return err
		}
		if c.Written() {
			return nil
		}
	}

	if err := action(c); err != nil {
		return err
	}

	for _, f := range filters.After {
		if !f.Applies(res.Method) {
			continue
		}
		if err := f.fn(c); err != nil {
			return err
		}
	}
	return nil
}

// handleError responds to a failed dispatch. Errors raised after the
// response was written can only be logged.
func (k *Kernel) handleError(c *requestContext, err error) {
	status := statusOf(err)
	attrs := []any{
		slog.String("controller", c.resolved.Controller),
		slog.String("action", c.resolved.Method),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		k.logger.ErrorContext(c.request.Context(), "dispatch failed", attrs...)
	} else {
		k.logger.DebugContext(c.request.Context(), "dispatch failed", attrs...)
	}

	if c.Written() {
		return
	}

	if k.errorHandler != nil {
		herr := k.errorHandler(c, err)
		if herr == nil || c.Written() {
			return
		}
		k.logger.ErrorContext(c.request.Context(), "error handler failed", slog.Any("error", herr))
	}

	if status == http.StatusNotFound && k.renderNotFound(c) {
		return
	}
	k.writeError(c, status, err)
}

// renderNotFound dispatches the registered 404 route for the request.
// It reports false when there is none or it failed to respond.
func (k *Kernel) renderNotFound(c *requestContext) bool {
	if c.resolved.Route != nil && c.resolved.Route.Name() == router.NotFoundName {
		return false
	}
	res, err := k.router.ResolveNotFound(router.HTTPRequest{R: c.request})
	if err != nil {
		return false
	}

	c.response.defaultStatus(http.StatusNotFound)
	nc := newContext(k, c.response, c.request, res)
	if err := k.dispatch(nc); err != nil {
		k.logger.ErrorContext(c.request.Context(), "404 route failed", slog.Any("error", err))
		return c.Written()
	}
	return c.Written()
}

// writeError renders the default error response in the request format.
func (k *Kernel) writeError(c *requestContext, status int, err error) {
	msg := http.StatusText(status)
	var code string
	if he := AsHTTPError(err); he != nil && status < http.StatusInternalServerError {
		msg, code = he.Message, he.ErrorCode
	}

	switch c.resolved.Extension {
	case "json":
		_ = c.JSON(status, errorBody{Error: msg, Code: code})
	default:
		http.Error(c.response, msg, status)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
