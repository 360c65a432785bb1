// Package router maps request paths to controller destinations.
//
// Routes are kept in registration order and the first route whose pattern
// and HTTP method both match wins. A route whose pattern matches but whose
// method does not is skipped, so two routes may share a pattern:
//
//	r := router.New()
//	r.Root("Pages::home")
//	r.Get("/widgets").To("Widgets::index")
//	r.Post("/widgets").To("Widgets::create")
//	r.Resources("posts", "Posts")
//	r.NotFound("Errors::notFound")
//
//	res, err := r.Process(router.HTTPRequest{R: req})
//	// res.Controller, res.Method, res.Params["id"], res.Extension
//
// # Tokens
//
// A pattern may embed :name placeholders. Registered tokens substitute a
// regular expression fragment; the defaults are:
//
//	:id    (?P<id>[0-9]+)
//	:slug  (?P<slug>[a-z0-9][a-z0-9_-]*)
//	:any   (?P<any>.+)
//
// Any other placeholder captures a single path segment. Patterns may also
// contain raw regular expression groups.
//
// # Extensions
//
// Every pattern accepts an optional trailing response extension from the
// registered set (json, xml, atom, rss by default). The matched extension is
// reported without its dot in [Resolved.Extension]; "html" otherwise.
//
// # Errors
//
// Requests that match nothing fall back to the "404" route. Without one,
// Process returns a [*RoutingError] wrapping [ErrNoRoute].
package router
