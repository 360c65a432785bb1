package router_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/router"
)

type fakeRequest struct {
	method string
	path   string
	uri    string
}

func (r fakeRequest) Path() string   { return r.path }
func (r fakeRequest) Method() string { return r.method }
func (r fakeRequest) URI() string {
	if r.uri == "" {
		return r.path
	}
	return r.uri
}

func get(path string) fakeRequest  { return fakeRequest{method: "GET", path: path} }
func post(path string) fakeRequest { return fakeRequest{method: "POST", path: path} }

func TestRouter_Ordering(t *testing.T) {
	t.Parallel()

	t.Run("earlier route wins over a later overlapping one", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/posts/new").To("Posts::new")
		r.Route("/posts/:slug").To("Posts::show")

		res, err := r.Process(get("/posts/new"))
		require.NoError(t, err)
		require.Equal(t, "Posts", res.Controller)
		require.Equal(t, "new", res.Method)
	})

	t.Run("registration order decides, not specificity", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/posts/:slug").To("Posts::show")
		r.Route("/posts/new").To("Posts::new")

		res, err := r.Process(get("/posts/new"))
		require.NoError(t, err)
		require.Equal(t, "show", res.Method)
		require.Equal(t, "new", res.Params["slug"])
	})
}

func TestRouter_MethodFallthrough(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/widgets").To("Widgets::index")
	r.Post("/widgets").To("Widgets::create")

	t.Run("POST skips the GET route with the same pattern", func(t *testing.T) {
		t.Parallel()

		res, err := r.Process(post("/widgets"))
		require.NoError(t, err)
		require.Equal(t, "Widgets", res.Controller)
		require.Equal(t, "create", res.Method)
	})

	t.Run("GET resolves to the first route", func(t *testing.T) {
		t.Parallel()

		res, err := r.Process(get("/widgets"))
		require.NoError(t, err)
		require.Equal(t, "index", res.Method)
	})

	t.Run("method comparison ignores case", func(t *testing.T) {
		t.Parallel()

		res, err := r.Process(fakeRequest{method: "post", path: "/widgets"})
		require.NoError(t, err)
		require.Equal(t, "create", res.Method)
	})

	t.Run("no method-compatible route falls through to the error", func(t *testing.T) {
		t.Parallel()

		_, err := r.Process(fakeRequest{method: "DELETE", path: "/widgets"})
		require.ErrorIs(t, err, router.ErrNoRoute)
	})
}

func TestRouter_Extensions(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Route("/posts/:id").To("Posts::show")

	t.Run("strips a registered extension", func(t *testing.T) {
		t.Parallel()

		res, err := r.Process(get("/posts/5.json"))
		require.NoError(t, err)
		require.Equal(t, "json", res.Extension)
		require.Equal(t, "5", res.Params["id"])
		require.NotContains(t, res.Params, "extension")
	})

	t.Run("defaults to html", func(t *testing.T) {
		t.Parallel()

		res, err := r.Process(get("/posts/5"))
		require.NoError(t, err)
		require.Equal(t, router.DefaultExtension, res.Extension)
	})

	t.Run("unregistered extension does not match", func(t *testing.T) {
		t.Parallel()

		_, err := r.Process(get("/posts/5.pdf"))
		require.ErrorIs(t, err, router.ErrNoRoute)
	})

	t.Run("custom extension", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.WithExtensions("csv"))
		r.Route("/reports/:id").To("Reports::show")

		res, err := r.Process(get("/reports/3.csv"))
		require.NoError(t, err)
		require.Equal(t, "csv", res.Extension)

		_, err = r.Process(get("/reports/3.json"))
		require.ErrorIs(t, err, router.ErrNoRoute)
	})
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()

	t.Run("falls back to the 404 route", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/posts").To("Posts::index")
		r.NotFound("Errors::notFound")

		res, err := r.Process(get("/nowhere"))
		require.NoError(t, err)
		require.Equal(t, "Errors", res.Controller)
		require.Equal(t, "notFound", res.Method)
		require.Equal(t, "html", res.Extension)
	})

	t.Run("sniffs the extension from the request URI", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.NotFound("Errors::notFound")

		res, err := r.Process(fakeRequest{method: "GET", path: "/missing.json", uri: "/missing.json?page=2"})
		require.NoError(t, err)
		require.Equal(t, "json", res.Extension)
	})

	t.Run("fails without a 404 route", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		_, err := r.Process(get("/nowhere"))
		require.ErrorIs(t, err, router.ErrNoRoute)
		require.True(t, router.IsRoutingError(err))
		require.Contains(t, err.Error(), "GET /nowhere")
	})

	t.Run("ResolveNotFound requires a 404 route", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		_, err := r.ResolveNotFound(get("/anything"))
		require.ErrorIs(t, err, router.ErrNoNotFoundRoute)

		r.NotFound("Errors::notFound")
		res, err := r.ResolveNotFound(get("/anything"))
		require.NoError(t, err)
		require.Equal(t, "notFound", res.Method)
	})
}

func TestRouter_Root(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Root("Pages::home")
	r.Route("/:any").To("Pages::catchAll")

	for _, p := range []string{"/", "", "//"} {
		res, err := r.Process(get(p))
		require.NoError(t, err)
		require.Equal(t, "home", res.Method, "path %q", p)
	}

	res, err := r.Process(get("/about"))
	require.NoError(t, err)
	require.Equal(t, "catchAll", res.Method)
}

func TestRouter_Resources(t *testing.T) {
	t.Parallel()

	r := router.New()
	routes := r.Resources("posts", "Posts")
	require.Len(t, routes, 8)

	tests := []struct {
		method string
		path   string
		action string
	}{
		{"GET", "/posts", "index"},
		{"GET", "/posts/new", "new"},
		{"POST", "/posts", "create"},
		{"GET", "/posts/7", "show"},
		{"GET", "/posts/7/edit", "edit"},
		{"POST", "/posts/7", "save"},
		{"PUT", "/posts/7", "save"},
		{"PATCH", "/posts/7", "save"},
		{"GET", "/posts/7/delete", "delete"},
		{"POST", "/posts/7/delete", "destroy"},
		{"DELETE", "/posts/7/delete", "destroy"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			res, err := r.Process(fakeRequest{method: tt.method, path: tt.path})
			require.NoError(t, err)
			require.Equal(t, "Posts", res.Controller)
			require.Equal(t, tt.action, res.Method)
		})
	}

	res, err := r.Process(get("/posts/7.json"))
	require.NoError(t, err)
	require.Equal(t, "7", res.Param("id"))
	require.Equal(t, "json", res.Extension)
}

func TestRouter_Tokens(t *testing.T) {
	t.Parallel()

	t.Run("custom token", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/archive/:year").To("Archive::year")

		// Generic placeholder before the token is registered.
		res, err := r.Process(get("/archive/last"))
		require.NoError(t, err)
		require.Equal(t, "last", res.Params["year"])

		require.NoError(t, r.RegisterToken(":year", `(?P<year>[0-9]{4})`))

		res, err = r.Process(get("/archive/2024"))
		require.NoError(t, err)
		require.Equal(t, "2024", res.Params["year"])

		_, err = r.Process(get("/archive/last"))
		require.ErrorIs(t, err, router.ErrNoRoute)
	})

	t.Run("empty token is rejected", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		require.ErrorIs(t, r.RegisterToken("", "x"), router.ErrEmptyToken)
		require.ErrorIs(t, r.RegisterToken("name", ""), router.ErrEmptyToken)
		require.PanicsWithError(t, router.ErrEmptyToken.Error(), func() { r.MustRegisterToken("name", "") })
		require.NotPanics(t, func() { r.MustRegisterToken("name", "(?P<name>[a-z]+)") })
	})

	t.Run("token name prefix is not confused with a longer placeholder", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/users/:identifier").To("Users::show")

		res, err := r.Process(get("/users/abc"))
		require.NoError(t, err)
		require.Equal(t, "abc", res.Params["identifier"])
	})

	t.Run("raw regular expression groups", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route(`/feed/(?:all|latest)/([0-9]+)`).To("Feed::show")

		res, err := r.Process(get("/feed/latest/10.rss"))
		require.NoError(t, err)
		require.Equal(t, "10", res.Params["1"])
		require.Equal(t, "rss", res.Extension)
	})

	t.Run("character classes are not placeholders", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route(`/tags/(?P<tag>[[:alpha:]]+)`).To("Tags::show")
		r.Route(`/keys/(?P<key>[:a-z]+)/:id`).To("Keys::show")
		require.NoError(t, r.Compile())

		res, err := r.Process(get("/tags/go"))
		require.NoError(t, err)
		require.Equal(t, "go", res.Params["tag"])

		_, err = r.Process(get("/tags/go1"))
		require.ErrorIs(t, err, router.ErrNoRoute)

		res, err = r.Process(get("/keys/ns:key/7"))
		require.NoError(t, err)
		require.Equal(t, "ns:key", res.Params["key"])
		require.Equal(t, "7", res.Params["id"])
	})

	t.Run("without default tokens", func(t *testing.T) {
		t.Parallel()

		r := router.New(router.WithoutDefaultTokens())
		r.Route("/posts/:id").To("Posts::show")

		res, err := r.Process(get("/posts/first"))
		require.NoError(t, err)
		require.Equal(t, "first", res.Params["id"])
	})
}

func TestRouter_Destination(t *testing.T) {
	t.Parallel()

	t.Run("expands capture groups", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/pages/:page").To("Pages::$page")

		res, err := r.Process(get("/pages/about"))
		require.NoError(t, err)
		require.Equal(t, "Pages", res.Controller)
		require.Equal(t, "about", res.Method)
	})

	t.Run("invalid destination", func(t *testing.T) {
		t.Parallel()

		r := router.New()
		r.Route("/broken").To("Broken")

		_, err := r.Process(get("/broken"))
		require.ErrorIs(t, err, router.ErrInvalidDestination)
	})
}

func TestRouter_Args(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Route("/blog/:slug").
		To("Blog::show").
		Args("slug", "format", "literal").
		Defaults(map[string]string{"format": "full"})

	res, err := r.Process(get("/blog/hello-world"))
	require.NoError(t, err)
	require.Equal(t, []string{"hello-world", "full", "literal"}, res.Args)
	require.Equal(t, "full", res.Param("format"))
}

func TestRouter_Compile(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Route("/ok").To("Ok::index")
	require.NoError(t, r.Compile())

	r.Route("/bad/(").To("Bad::index")
	err := r.Compile()
	require.ErrorIs(t, err, router.ErrInvalidPattern)
	require.ErrorContains(t, err, "missing closing )")

	_, err = r.Process(get("/bad/x"))
	require.ErrorIs(t, err, router.ErrInvalidPattern)
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/a").To("A::index")
	r.Root("Pages::home")
	r.NotFound("Errors::notFound")

	routes := r.Routes()
	require.Len(t, routes, 3)
	require.Equal(t, "/a", routes[0].Pattern())
	require.Equal(t, []string{"GET"}, routes[0].Methods())
	require.Equal(t, router.RootName, routes[1].Name())
	require.Equal(t, router.NotFoundName, routes[2].Name())
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":          "/",
		"/":         "/",
		"posts":     "/posts",
		"/posts/":   "/posts",
		"///a//b//": "/a//b",
	}
	for in, want := range tests {
		require.Equal(t, want, router.NormalizePath(in), "input %q", in)
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	_, ok := router.FromContext(context.Background())
	require.False(t, ok)

	r := router.New()
	r.Get("/posts/:id").To("Posts::show")

	req := httptest.NewRequest("GET", "/posts/9.xml", nil)
	res, err := r.Process(router.HTTPRequest{R: req})
	require.NoError(t, err)
	require.Equal(t, "xml", res.Extension)

	ctx := router.WithResolved(context.Background(), res)
	got, ok := router.FromContext(ctx)
	require.True(t, ok)
	require.Same(t, res, got)
}
