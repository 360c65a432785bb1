package main

import (
	"github.com/dmitrymomot/mvc"
)

// drawRoutes declares the blog routes. Order matters: the first match wins.
func drawRoutes(r *mvc.Router) {
	r.MustRegisterToken("year", `(?P<year>[12][0-9]{3})`)

	r.Root("Pages::home")
	r.Get("/pages/(?P<page>about|privacy)").To("Pages::$page")

	r.Get("/archive/:year").To("Posts::archive").Args("year")
	r.Resources("posts", "Posts")

	r.Post("/posts/:id/comments").To("Comments::create").Args("id")
	r.Post("/posts/:id/comments/approve").To("Comments::approve").Args("id")

	r.NotFound("Errors::notFound")
}
