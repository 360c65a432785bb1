package mvc

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"time"

	"github.com/dmitrymomot/mvc/internal"
	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/query"
	"github.com/dmitrymomot/mvc/pkg/router"
	"github.com/dmitrymomot/mvc/pkg/view"
)

// Type aliases - public API
type (
	// App wires routes, controllers, models, translations and views into
	// one http.Handler.
	App = internal.App

	// Kernel dispatches routed requests to controller actions.
	Kernel = internal.Kernel

	// Router is the ordered route registry.
	Router = router.Router

	// Context is the per-request dispatch context handed to actions and
	// filters.
	Context = internal.Context

	// HandlerFunc is the signature of actions and filters.
	HandlerFunc = internal.HandlerFunc

	// Actions maps action names to handlers.
	Actions = internal.Actions

	// Controller exposes the actions of one controller.
	Controller = internal.Controller

	// FilteredController is a controller with before and after filters.
	FilteredController = internal.FilteredController

	// ControllerFactory builds a controller instance for one request.
	ControllerFactory = internal.ControllerFactory

	// Filters lists the before and after filters of a controller.
	Filters = internal.Filters

	// Filter is a handler restricted to some actions.
	Filter = internal.Filter

	// FilterOption restricts a filter.
	FilterOption = internal.FilterOption

	// Middleware wraps the whole application handler.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from actions and filters.
	ErrorHandler = internal.ErrorHandler

	// HTTPError is an error with a response status.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// CheckFunc is a readiness check.
	CheckFunc = internal.CheckFunc

	// Extractor finds a request value in an ordered list of sources.
	Extractor = internal.Extractor

	// ExtractorSource reads one candidate value from a request.
	ExtractorSource = internal.ExtractorSource

	// ResponseWriter wraps http.ResponseWriter with status tracking and
	// before-write hooks.
	ResponseWriter = internal.ResponseWriter
)

// Errors for checking return values.
var (
	ErrUnknownController   = internal.ErrUnknownController
	ErrUnknownAction       = internal.ErrUnknownAction
	ErrDuplicateController = internal.ErrDuplicateController
	ErrNoViews             = internal.ErrNoViews
	ErrNoModels            = internal.ErrNoModels
)

// New creates an application. Configuration errors fail here.
//
// Example:
//
//	app, err := mvc.New(
//	    mvc.WithConnection("default", conn),
//	    mvc.WithModels(models.All...),
//	    mvc.WithRoutes(routes.Draw),
//	    mvc.WithController("Posts", controllers.NewPosts),
//	)
//	if err != nil {
//	    return err
//	}
//	return app.Run(":8080")
func New(opts ...Option) (*App, error) {
	return internal.New(opts...)
}

// App options

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithRoutes registers routes on the application router at boot.
//
// Example:
//
//	mvc.WithRoutes(func(r *mvc.Router) {
//	    r.Root("Pages::home")
//	    r.Resources("posts", "Posts")
//	    r.Get("/archive/:year").To("Posts::archive").Args("year")
//	    r.NotFound("Errors::notFound")
//	})
func WithRoutes(fn func(r *Router)) Option {
	return internal.WithRoutes(fn)
}

// WithRouter replaces the application router, e.g. one created with
// custom extensions.
func WithRouter(r *Router) Option {
	return internal.WithRouter(r)
}

// WithController registers the controller named in route destinations.
// Names are matched case-insensitively.
func WithController(name string, factory ControllerFactory) Option {
	return internal.WithController(name, factory)
}

// WithConnection registers a named query connection. The first one is the
// default.
func WithConnection(name string, conn *query.Conn) Option {
	return internal.WithConnection(name, conn)
}

// WithModels registers model definitions.
func WithModels(defs ...model.Definition) Option {
	return internal.WithModels(defs...)
}

// WithStoreOptions configures the model store.
func WithStoreOptions(opts ...model.StoreOption) Option {
	return internal.WithStoreOptions(opts...)
}

// WithTranslations enables translations.
func WithTranslations(opts ...i18n.Option) Option {
	return internal.WithTranslations(opts...)
}

// WithLanguage sets the sources of an explicit request language, consulted
// before Accept-Language.
func WithLanguage(sources ...ExtractorSource) Option {
	return internal.WithLanguage(sources...)
}

// WithViews enables Context.Render over the views in fsys.
func WithViews(fsys fs.FS, opts ...view.Option) Option {
	return internal.WithViews(fsys, opts...)
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	mvc.New(
//	    mvc.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets a custom handler for errors returned by actions
// and filters.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthChecks enables health check endpoints with optional configuration.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
//
// Example:
//
//	mvc.WithHealthChecks(
//	    mvc.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithShutdownHook registers a cleanup function run after the server
// stops.
func WithShutdownHook(fn func(context.Context) error) Option {
	return internal.WithShutdownHook(fn)
}

// Health check options

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger overrides the application logger for the server runtime.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// This applies to both the HTTP server and shutdown hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ShutdownHook registers a cleanup function to run during shutdown,
// after the hooks registered with WithShutdownHook.
//
// Example:
//
//	mvc.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
// Useful for testing or when integrating with existing context hierarchies.
// Defaults to context.Background() if not set.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Listener serves on ln instead of listening on the address.
func Listener(ln net.Listener) RunOption {
	return internal.Listener(ln)
}

// Filters

// NewFilter creates a filter. Without options it applies to every action.
func NewFilter(fn HandlerFunc, opts ...FilterOption) Filter {
	return internal.NewFilter(fn, opts...)
}

// Only restricts a filter to the named actions.
func Only(actions ...string) FilterOption {
	return internal.Only(actions...)
}

// Except skips a filter for the named actions.
func Except(actions ...string) FilterOption {
	return internal.Except(actions...)
}

// Extractor sources

// FromHeader reads a request header.
func FromHeader(name string) ExtractorSource {
	return internal.FromHeader(name)
}

// FromQuery reads a query parameter.
func FromQuery(name string) ExtractorSource {
	return internal.FromQuery(name)
}

// FromParam reads a route parameter.
func FromParam(name string) ExtractorSource {
	return internal.FromParam(name)
}

// FromForm reads a form value.
func FromForm(name string) ExtractorSource {
	return internal.FromForm(name)
}

// NewExtractor creates an extractor trying sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// HTTP errors

// NewHTTPError creates an error answered with code. An empty message
// becomes the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// WithErrorCode sets the machine-readable error code.
func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

// WithError sets the wrapped cause.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 error. The 404 route renders it when
// registered.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrUnprocessable creates a 422 error.
func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnprocessable(message, opts...)
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// IsHTTPError reports whether err wraps an HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError returns the HTTPError wrapped in err, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// Context helpers

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
//
// Example:
//
//	type userKey struct{}
//
//	user := mvc.ContextValue[*model.Record](c, userKey{})
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns a typed route parameter.
//
//	id := mvc.Param[int64](c, "id")
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Arg returns the i-th resolved route argument, typed.
func Arg[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, i int) T {
	return internal.Arg[T](c, i)
}

// Query returns a typed query parameter.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a typed query parameter, or defaultValue when it is
// missing or unparsable.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}
