package internal

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrymomot/mvc/pkg/i18n"
	"github.com/dmitrymomot/mvc/pkg/model"
	"github.com/dmitrymomot/mvc/pkg/router"
)

// Context gives actions and filters access to the request, the resolved
// route and the application's collaborators.
// It also implements context.Context by delegating to the request context,
// so it can be passed to queries directly.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the response writer.
	Response() http.ResponseWriter

	// Route returns the resolved route of the request.
	Route() *router.Resolved

	// Controller returns the controller name of the resolved route.
	Controller() string

	// Action returns the action name of the resolved route.
	Action() string

	// Param returns a captured route parameter, falling back to the route
	// defaults. Returns empty string if neither exists.
	Param(name string) string

	// Params returns all captured route parameters.
	Params() map[string]string

	// Args returns the resolved positional arguments of the route.
	Args() []string

	// Extension returns the response format, "html" unless the path
	// carried a registered extension.
	Extension() string

	// Query returns the query parameter value by name.
	Query(name string) string

	// Form returns the form value by name.
	Form(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// Render renders the view of the current action,
	// "<controller>/<action>" plus the extension for non-html formats.
	Render(code int, vars map[string]any) error

	// RenderView renders the named view. The content type follows the
	// extension of the request.
	RenderView(code int, name string, vars map[string]any) error

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// XML writes an XML response with the given status code.
	XML(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to the given URL with the given status code.
	Redirect(code int, url string) error

	// Error creates and returns an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a response has already been written.
	Written() bool

	// Model returns the named model of the application store.
	Model(name string) (*model.Model, error)

	// Translator returns the translator for the request language.
	Translator() *i18n.Translator

	// T translates a key into the request language.
	// Returns the key itself if no translations are configured.
	T(key string, vars ...i18n.M) string

	// Tn translates a key with pluralization.
	Tn(key string, n int, vars ...i18n.M) string

	// Language returns the request language, empty without translations.
	Language() string

	// ErrorMessages returns the validation errors of rec translated into
	// the request language.
	ErrorMessages(rec *model.Record) map[string][]string

	// Logger returns the application logger.
	Logger() *slog.Logger

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	Get(key any) any
}

// requestContext implements the Context interface.
type requestContext struct {
	kernel     *Kernel
	request    *http.Request
	response   *ResponseWriter
	resolved   *router.Resolved
	translator *i18n.Translator
	langDone   bool
}

func newContext(k *Kernel, w *ResponseWriter, r *http.Request, res *router.Resolved) *requestContext {
	return &requestContext{
		kernel:   k,
		request:  r.WithContext(router.WithResolved(r.Context(), res)),
		response: w,
		resolved: res,
	}
}

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }
func (c *requestContext) Route() *router.Resolved       { return c.resolved }
func (c *requestContext) Controller() string            { return c.resolved.Controller }
func (c *requestContext) Action() string                { return c.resolved.Method }
func (c *requestContext) Extension() string             { return c.resolved.Extension }

func (c *requestContext) Param(name string) string {
	return c.resolved.Param(name)
}

func (c *requestContext) Params() map[string]string {
	return maps.Clone(c.resolved.Params)
}

func (c *requestContext) Args() []string {
	return append([]string(nil), c.resolved.Args...)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) Render(code int, vars map[string]any) error {
	name := viewDir(c.resolved.Controller) + "/" + c.resolved.Method
	if ext := c.resolved.Extension; ext != router.DefaultExtension {
		name += "." + ext
	}
	return c.RenderView(code, name, vars)
}

func (c *requestContext) RenderView(code int, name string, vars map[string]any) error {
	if c.kernel.views == nil {
		return ErrNoViews
	}

	data := make(map[string]any, len(vars)+3)
	data["T"] = c.Translator()
	data["Lang"] = c.Language()
	data["Ext"] = c.resolved.Extension
	maps.Copy(data, vars)

	out, err := c.kernel.views.RenderContext(c.request.Context(), name, data)
	if err != nil {
		return err
	}

	if c.response.Header().Get("Content-Type") == "" {
		c.response.Header().Set("Content-Type", contentType(c.resolved.Extension))
	}
	c.response.WriteHeader(code)
	_, err = c.response.Write([]byte(out))
	return err
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) XML(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/xml; charset=utf-8")
	c.response.WriteHeader(code)
	if _, err := c.response.Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	if code < 300 || code > 399 {
		code = http.StatusSeeOther
	}
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	return c.response.Written()
}

func (c *requestContext) Model(name string) (*model.Model, error) {
	if c.kernel.store == nil {
		return nil, ErrNoModels
	}
	return c.kernel.store.Model(name)
}

// Translator resolves the request language once: the language extractor
// first, then Accept-Language.
func (c *requestContext) Translator() *i18n.Translator {
	if c.langDone {
		return c.translator
	}
	c.langDone = true

	cat := c.kernel.catalog
	if cat == nil {
		return nil
	}
	accept := c.Header("Accept-Language")
	if lang, ok := c.kernel.language.Extract(c); ok {
		accept = lang
	}
	c.translator = cat.For(cat.Match(accept))
	return c.translator
}

func (c *requestContext) T(key string, vars ...i18n.M) string {
	if tr := c.Translator(); tr != nil {
		return tr.T(key, vars...)
	}
	return key
}

func (c *requestContext) Tn(key string, n int, vars ...i18n.M) string {
	if tr := c.Translator(); tr != nil {
		return tr.Tn(key, n, vars...)
	}
	return key
}

func (c *requestContext) Language() string {
	if tr := c.Translator(); tr != nil {
		return tr.Language()
	}
	return ""
}

func (c *requestContext) ErrorMessages(rec *model.Record) map[string][]string {
	errs := rec.Errors()
	if tr := c.Translator(); tr != nil {
		errs.Translate(tr.Translate)
	}
	return errs.Messages()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.kernel.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.kernel.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.kernel.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.kernel.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

// feedTypes covers the extensions mime does not know everywhere.
var feedTypes = map[string]string{
	"atom": "application/atom+xml; charset=utf-8",
	"rss":  "application/rss+xml; charset=utf-8",
	"json": "application/json; charset=utf-8",
	"xml":  "application/xml; charset=utf-8",
}

// contentType returns the Content-Type of a response format.
func contentType(ext string) string {
	if t, ok := feedTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		if !strings.Contains(t, "charset") && strings.HasPrefix(t, "text/") {
			t += "; charset=utf-8"
		}
		return t
	}
	return "text/html; charset=utf-8"
}

// viewDir converts a controller name to its view directory:
// "Posts" -> "posts", "BlogPosts" -> "blog_posts", "Admin.Users" -> "admin/users".
func viewDir(controller string) string {
	var b strings.Builder
	prev := rune(0)
	for i, r := range controller {
		switch {
		case r == '.' || r == '\\':
			b.WriteByte('/')
		case unicode.IsUpper(r):
			if i > 0 && prev != '.' && prev != '\\' && !unicode.IsUpper(prev) && prev != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
