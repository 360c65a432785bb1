// Package mvc is a small model-view-controller framework: an ordered
// route registry, a dispatcher that runs controller filters and actions,
// an active-record model layer over a fluent query builder, translations
// and file-based views.
//
// # Quick Start
//
// Declare routes, register controllers and models, and run the server:
//
//	app, err := mvc.New(
//	    mvc.WithLogger(log),
//	    mvc.WithConnection("default", conn),
//	    mvc.WithModels(models.Post, models.Comment),
//	    mvc.WithRoutes(func(r *mvc.Router) {
//	        r.Root("Pages::home")
//	        r.Resources("posts", "Posts")
//	        r.NotFound("Errors::notFound")
//	    }),
//	    mvc.WithController("Posts", controllers.NewPosts),
//	    mvc.WithViews(views, view.WithLayout("layouts/app.html")),
//	)
//	if err != nil {
//	    log.Error("boot failed", "error", err)
//	    os.Exit(1)
//	}
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Error("server failed", "error", err)
//	}
//
// # Routing
//
// Routes are tried in registration order; the first whose pattern and
// method match wins. Patterns use tokens (:id, :slug, :any, or custom
// ones registered with Router.RegisterToken) and accept an optional
// response extension such as .json or .rss. A destination is written
// "Controller::action" and may reference captures as $name.
//
// # Controllers
//
// A controller maps action names to handlers and may declare filters:
//
//	type Posts struct{ posts *model.Model }
//
//	func (p *Posts) Actions() mvc.Actions {
//	    return mvc.Actions{"index": p.index, "show": p.show}
//	}
//
//	func (p *Posts) Filters() mvc.Filters {
//	    return mvc.Filters{
//	        Before: []mvc.Filter{mvc.NewFilter(p.load, mvc.Only("show"))},
//	    }
//	}
//
// Before filters stop the chain by returning an error or writing a
// response. After filters run once the action succeeded.
//
// # Views
//
// Context.Render renders "<controller>/<action>" for HTML requests and
// "<controller>/<action>.<ext>" for other formats, so /posts/1.json
// renders posts/show.json. Views get the request translator as .T.
//
// # Errors
//
// Actions return errors. HTTPError values carry their status, missing
// records answer 404 through the 404 route when one is registered, and
// everything else is a 500 with the cause logged but not shown.
//
// # Shutdown
//
// The application handles SIGINT/SIGTERM for graceful shutdown.
// Register cleanup functions with WithShutdownHook:
//
//	app, err := mvc.New(
//	    mvc.WithShutdownHook(db.Shutdown(pool)),
//	)
package mvc
