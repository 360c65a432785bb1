package internal

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/query"
	"github.com/dmitrymomot/mvc/pkg/router"
	"github.com/dmitrymomot/mvc/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithLogger sets the application logger, shared by the dispatcher and
// the model store.
//
// Example:
//
//	log, _ := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//	mvc.New(mvc.WithLogger(log))
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRoutes declares routes on the application router. It may be given
// several times; routes keep their declaration order.
//
// Example:
//
//	mvc.WithRoutes(func(r *router.Router) {
//	    r.Root("Pages::home")
//	    r.Get("/posts/new").To("Posts::new")
//	    r.Resources("posts", "Posts")
//	})
func WithRoutes(fn func(r *router.Router)) Option {
	return func(a *App) {
		if fn != nil {
			a.routes = append(a.routes, fn)
		}
	}
}

// WithRouter replaces the default router, e.g. one built with custom
// tokens or extensions.
func WithRouter(r *router.Router) Option {
	return func(a *App) {
		if r != nil {
			a.router = r
		}
	}
}

// WithController registers the controller named in route destinations.
//
// Example:
//
//	mvc.WithController("Posts", func() mvc.Controller { return &Posts{} })
func WithController(name string, factory ControllerFactory) Option {
	return func(a *App) {
		a.controllers = append(a.controllers, namedController{name: name, factory: factory})
	}
}

// WithConnection registers a named query connection. The first one is
// used by models without an explicit connection.
func WithConnection(name string, conn *query.Conn) Option {
	return func(a *App) {
		if conn == nil {
			a.errs = append(a.errs, fmt.Errorf("mvc: connection %q is nil", name))
			return
		}
		if err := a.conns.Add(name, conn); err != nil {
			a.errs = append(a.errs, err)
		}
	}
}

// WithModels registers model definitions in the application store.
func WithModels(defs ...model.Definition) Option {
	return func(a *App) {
		a.models = append(a.models, defs...)
	}
}

// WithStoreOptions configures the model store (schema cache, clock, time
// zone, translator).
func WithStoreOptions(opts ...model.StoreOption) Option {
	return func(a *App) {
		a.storeOpts = append(a.storeOpts, opts...)
	}
}

// WithTranslations enables translations. Requests get a translator for
// the language matched from WithLanguage sources or Accept-Language, and
// validation messages use the default language.
//
// Example:
//
//	mvc.WithTranslations(i18n.WithDefaultLanguage("en"), i18n.WithYAMLDir(locales))
func WithTranslations(opts ...i18n.Option) Option {
	return func(a *App) {
		if a.catalogOpts == nil {
			a.catalogOpts = []i18n.Option{}
		}
		a.catalogOpts = append(a.catalogOpts, opts...)
	}
}

// WithLanguage sets the sources consulted for an explicit request language
// before Accept-Language.
//
// Example:
//
//	mvc.WithLanguage(mvc.FromQuery("lang"), mvc.FromParam("lang"))
func WithLanguage(sources ...ExtractorSource) Option {
	return func(a *App) {
		a.language = NewExtractor(sources...)
	}
}

// WithViews enables Context.Render over the views in fsys.
//
// Example:
//
//	//go:embed views
//	var views embed.FS
//
//	sub, _ := fs.Sub(views, "views")
//	mvc.WithViews(sub, view.WithLayout("layouts/app.html"))
func WithViews(fsys fs.FS, opts ...view.Option) Option {
	return func(a *App) {
		a.viewFS = fsys
		a.viewOpts = append(a.viewOpts, opts...)
	}
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
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
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			a.errs = append(a.errs, fmt.Errorf("mvc: static files %s: %w", pattern, err))
			return
		}

		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler sets a custom handler for errors returned by actions
// and filters. When it returns an error without responding, the default
// response is written.
//
// Example:
//
//	mvc.WithErrorHandler(func(c mvc.Context, err error) error {
//	    if he := mvc.AsHTTPError(err); he != nil {
//	        return c.RenderView(he.Code, "errors/http", map[string]any{"error": he})
//	    }
//	    return err
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
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
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithShutdownHook registers a cleanup function run by Run after the
// server stops, e.g. db.Shutdown(pool).
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.shutdownHooks = append(a.shutdownHooks, fn)
		}
	}
}
