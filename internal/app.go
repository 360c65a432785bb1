package internal

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/logger"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/query"
	"github.com/dmitrymomot/mvc/pkg/router"
	"github.com/dmitrymomot/mvc/pkg/view"
)

// App is the boot-time context of an application: the route registry,
// controllers, connections, models, translations and views, wired into
// one http.Handler. It is immutable after New.
type App struct {
	mux     chi.Router
	kernel  *Kernel
	router  *router.Router
	conns   *query.Registry
	store   *model.Store
	catalog *i18n.Catalog
	views   *view.Renderer
	logger  *slog.Logger

	middlewares   []Middleware
	staticRoutes  []staticRoute
	healthConfig  *healthConfig
	controllers   []namedController
	models        []model.Definition
	storeOpts     []model.StoreOption
	catalogOpts   []i18n.Option
	viewFS        fs.FS
	viewOpts      []view.Option
	language      Extractor
	errorHandler  ErrorHandler
	routes        []func(*router.Router)
	shutdownHooks []func(context.Context) error
	errs          []error
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

type namedController struct {
	name    string
	factory ControllerFactory
}

// New creates an application with the given options. Configuration
// errors (duplicate connections or models, unknown relation targets,
// invalid route patterns, bad translation files) fail here, at boot.
//
// Example:
//
//	app, err := mvc.New(
//	    mvc.WithConnection("default", conn),
//	    mvc.WithModels(models.Post, models.Comment),
//	    mvc.WithRoutes(func(r *router.Router) {
//	        r.Root("Pages::home")
//	        r.Resources("posts", "Posts")
//	        r.NotFound("Errors::notFound")
//	    }),
//	    mvc.WithController("Posts", controllers.NewPosts),
//	)
func New(opts ...Option) (*App, error) {
	a := &App{
		mux:    chi.NewRouter(),
		router: router.New(),
		conns:  query.NewRegistry(),
		logger: logger.NewNope(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := a.boot(); err != nil {
		return nil, err
	}
	a.setupRoutes()
	return a, nil
}

// boot builds the collaborators the options configured.
func (a *App) boot() error {
	errs := a.errs

	for _, fn := range a.routes {
		fn(a.router)
	}

	if a.catalogOpts != nil {
		c, err := i18n.New(a.catalogOpts...)
		if err != nil {
			errs = append(errs, err)
		}
		a.catalog = c
	}

	if a.viewFS != nil {
		a.views = view.New(a.viewFS, a.viewOpts...)
	}

	if len(a.models) > 0 || len(a.conns.Names()) > 0 {
		opts := []model.StoreOption{model.WithLogger(a.logger)}
		if a.catalog != nil {
			opts = append(opts, model.WithTranslator(a.catalog.For("").Translate))
		}
		a.store = model.NewStore(a.conns, append(opts, a.storeOpts...)...)
		if err := a.store.Register(a.models...); err != nil {
			errs = append(errs, err)
		} else if err := a.store.Check(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.router.Compile(); err != nil {
		errs = append(errs, err)
	}

	a.kernel = NewKernel(a.router,
		WithKernelViews(a.views),
		WithCatalog(a.catalog),
		WithStore(a.store),
		WithLanguageExtractor(a.language),
		WithKernelErrorHandler(a.errorHandler),
		WithKernelLogger(a.logger),
	)
	for _, c := range a.controllers {
		if err := a.kernel.Register(c.name, c.factory); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	a.warnUnroutable()
	return nil
}

// warnUnroutable logs routes whose controller is not registered. Templated
// destinations ($name) are only known at match time and are skipped.
func (a *App) warnUnroutable() {
	known := make(map[string]bool)
	for _, name := range a.kernel.Controllers() {
		known[name] = true
	}
	for _, rt := range a.router.Routes() {
		ctrl, _, _ := strings.Cut(rt.Destination(), router.DestinationSeparator)
		if ctrl == "" || strings.Contains(ctrl, "$") {
			continue
		}
		if !known[foldName(ctrl)] {
			a.logger.Warn("route targets unregistered controller",
				slog.String("pattern", rt.Pattern()),
				slog.String("destination", rt.Destination()),
			)
		}
	}
}

// setupRoutes configures the chi mux: middleware, static files, health
// endpoints, then the dispatcher for everything else.
func (a *App) setupRoutes() {
	for _, mw := range a.middlewares {
		a.mux.Use(mw)
	}

	for _, sr := range a.staticRoutes {
		a.mux.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.mux.Get(a.healthConfig.livenessPath, livenessHandler())
		a.mux.Get(a.healthConfig.readinessPath, readinessHandler(a.healthConfig.checks, a.logger))
	}

	a.mux.Handle("/*", a.kernel)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Router returns the route registry.
func (a *App) Router() *router.Router { return a.router }

// Kernel returns the dispatcher.
func (a *App) Kernel() *Kernel { return a.kernel }

// Connections returns the connection registry.
func (a *App) Connections() *query.Registry { return a.conns }

// Store returns the model store, nil when no connection or model is configured.
func (a *App) Store() *model.Store { return a.store }

// Catalog returns the translations, nil when none are configured.
func (a *App) Catalog() *i18n.Catalog { return a.catalog }

// Views returns the view renderer, nil when no views are configured.
func (a *App) Views() *view.Renderer { return a.views }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Run starts the HTTP server on addr and blocks until shutdown. Shutdown
// hooks registered with WithShutdownHook run after the server stops,
// followed by the ones passed here.
//
// Example:
//
//	err := app.Run(":8080", mvc.ShutdownTimeout(10*time.Second))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	log := cfg.logger
	if log == nil {
		log = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a,
		address:         addr,
		logger:          log,
		shutdownTimeout: cfg.shutdownTimeout,
		shutdownHooks:   append(append([]func(context.Context) error{}, a.shutdownHooks...), cfg.shutdownHooks...),
		baseCtx:         cfg.baseCtx,
		listener:        cfg.listener,
	})
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        healthChecks
	livenessPath  string
	readinessPath string
}

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	mvc.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(healthChecks)
		}
		c.checks[name] = fn
	}
}
