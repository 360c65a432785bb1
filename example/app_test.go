package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc"
	"github.com/dmitrymomot/mvc/pkg/db"
	"github.com/dmitrymomot/mvc/pkg/logger"
)

func testApp(t *testing.T) *mvc.App {
	t.Helper()
	ctx := context.Background()

	cfg := Config{
		RequestTimeout:  5 * time.Second,
		DefaultLanguage: "en",
		DB: db.Config{
			Driver:          db.DriverSQLite,
			DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
			MigrationsTable: "schema_migrations",
			MaxOpenConns:    1,
		},
	}
	log := logger.NewNope()

	pool, conn, err := openDB(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, db.Migrate(ctx, pool, cfg.DB.Driver, migrationsFor(cfg.DB.Driver), cfg.DB.MigrationsTable, log))

	app, err := newApp(ctx, cfg, log, pool, conn)
	require.NoError(t, err)
	return app
}

func send(app http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestBlog_Posts(t *testing.T) {
	t.Parallel()
	app := testApp(t)

	rec := send(app, http.MethodPost, "/posts", url.Values{"title": {"Hello World"}, "body": {"A first post body."}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/posts/1", rec.Header().Get("Location"))

	rec = send(app, http.MethodGet, "/posts/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>Hello World</h1>")
	require.Contains(t, rec.Body.String(), "<nav>")

	rec = send(app, http.MethodGet, "/posts.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "hello-world", list[0]["slug"])

	rec = send(app, http.MethodGet, "/posts.rss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<title>Hello World</title>")

	rec = send(app, http.MethodPost, "/posts", url.Values{"title": {""}, "body": {"short"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `class="error"`)

	rec = send(app, http.MethodPost, "/posts/1/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = send(app, http.MethodGet, "/posts/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlog_Comments(t *testing.T) {
	t.Parallel()
	app := testApp(t)

	rec := send(app, http.MethodPost, "/posts", url.Values{"title": {"Comments"}, "body": {"Say something nice."}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = send(app, http.MethodPost, "/posts/1/comments.json", url.Values{"author": {"Ann"}, "body": {"Nice!"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(app, http.MethodPost, "/posts/1/comments.json", url.Values{"author": {""}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"author"`)

	comments := func() []any {
		rec := send(app, http.MethodGet, "/posts/1.json", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var post map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
		out, _ := post["comments"].([]any)
		return out
	}
	require.Empty(t, comments())

	rec = send(app, http.MethodPost, "/posts/1/comments/approve", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"approved":1}`, rec.Body.String())
	require.Len(t, comments(), 1)
}

func TestBlog_Pages(t *testing.T) {
	t.Parallel()
	app := testApp(t)

	tests := []struct {
		name   string
		target string
		code   int
		want   string
	}{
		{"home", "/", http.StatusOK, "Nothing here yet."},
		{"markdown page", "/pages/about", http.StatusOK, "<title>About · The mvc blog</title>"},
		{"unknown page", "/pages/contact", http.StatusNotFound, "Page not found"},
		{"not found translated", "/missing?lang=pl", http.StatusNotFound, "Nie znaleziono strony"},
		{"not found json", "/missing.json", http.StatusNotFound, `{"error":"Page not found"}`},
		{"static", "/static/app.css", http.StatusOK, "font-family"},
		{"archive", "/archive/2024", http.StatusOK, "Posts from 2024"},
		{"liveness", "/health/live", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(app, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.code, rec.Code)
			require.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestRoutesTable(t *testing.T) {
	t.Parallel()

	app, err := mvc.New(mvc.WithRoutes(drawRoutes))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, printRoutes(&buf, app.Router()))
	out := buf.String()
	require.Contains(t, out, "Posts::index")
	require.Contains(t, out, "Comments::approve")
	require.Contains(t, out, "Errors::notFound")
}
