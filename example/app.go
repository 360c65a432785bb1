package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/mvc"
	"github.com/dmitrymomot/mvc/example/controllers"
	"github.com/dmitrymomot/mvc/example/models"
	"github.com/dmitrymomot/mvc/middlewares"
	"github.com/dmitrymomot/mvc/pkg/cache"
	"github.com/dmitrymomot/mvc/pkg/db"
	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/query"
	"github.com/dmitrymomot/mvc/pkg/view"
)

// openDB opens the database pool and wraps it in a query connection.
func openDB(ctx context.Context, cfg Config, log *slog.Logger) (*sql.DB, *query.Conn, error) {
	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	conn, err := query.NewConn(pool,
		query.WithDialect(query.Dialect(cfg.DB.Driver)),
		query.WithPrefix(cfg.DB.Prefix),
		query.WithLogger(log),
	)
	if err != nil {
		return nil, nil, errors.Join(err, pool.Close())
	}
	return pool, conn, nil
}

// newApp wires the blog. Extra options are applied last.
func newApp(ctx context.Context, cfg Config, log *slog.Logger, pool *sql.DB, conn *query.Conn, extra ...mvc.Option) (*mvc.App, error) {
	readiness := []mvc.HealthOption{mvc.WithReadinessCheck("db", db.Healthcheck(pool))}
	var storeOpts []model.StoreOption

	if cfg.Redis.URL != "" {
		client, err := cache.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		schemas := cache.NewRedis[[]query.Column](client, nil, cfg.Redis)
		storeOpts = append(storeOpts, model.WithSchemaCache(schemas))
		readiness = append(readiness, mvc.WithReadinessCheck("redis", schemas.Healthcheck))
		extra = append([]mvc.Option{mvc.WithShutdownHook(func(context.Context) error { return client.Close() })}, extra...)
	}

	opts := []mvc.Option{
		mvc.WithLogger(log),
		mvc.WithMiddleware(
			middlewares.Recover(middlewares.WithRecoverLogger(log)),
			middlewares.RequestID(),
			middlewares.Timeout(cfg.RequestTimeout, middlewares.WithTimeoutLogger(log)),
		),
		mvc.WithConnection("default", conn),
		mvc.WithModels(models.All...),
		mvc.WithStoreOptions(storeOpts...),
		mvc.WithRoutes(drawRoutes),
		mvc.WithController("Pages", controllers.NewPages),
		mvc.WithController("Posts", controllers.NewPosts),
		mvc.WithController("Comments", controllers.NewComments),
		mvc.WithController("Errors", controllers.NewErrors),
		mvc.WithErrorHandler(controllers.HandleError),
		mvc.WithTranslations(
			i18n.WithDefaultLanguage(cfg.DefaultLanguage),
			i18n.WithYAMLDir(sub(locales, "locales")),
		),
		mvc.WithLanguage(mvc.FromQuery("lang"), mvc.FromHeader("X-Language")),
		mvc.WithViews(sub(views, "views"),
			view.WithLayout("layouts/app.html"),
			view.WithReload(cfg.ReloadViews),
			view.WithComponent("errors/http", httpErrorPage),
		),
		mvc.WithStaticFiles("/static/", public, "public"),
		mvc.WithHealthChecks(readiness...),
		mvc.WithShutdownHook(db.Shutdown(pool)),
	}
	return mvc.New(append(opts, extra...)...)
}
