package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Kinds of view files, chosen by extension.
const (
	kindHTML = iota
	kindMarkdown
	kindText
)

// lookupOrder lists the extensions tried for a name without one.
var lookupOrder = []string{".html", ".md", ".txt"}

// Renderer renders named views from a file system. Parsed templates are
// cached; the renderer is safe for concurrent use.
//
// Views are resolved by extension:
//
//	.html, .htm  html/template, wrapped in the layout
//	.md          text/template, then markdown converted and sanitized,
//	             wrapped in the layout; may start with YAML frontmatter
//	anything else text/template (.txt, .json, .xml, .atom, .rss, ...)
type Renderer struct {
	fs         fs.FS
	md         goldmark.Markdown
	policy     *bluemonday.Policy
	funcs      map[string]any
	layout     string
	reload     bool
	components map[string]ComponentFunc

	mu    sync.RWMutex
	cache map[string]*entry
}

type entry struct {
	kind int
	meta map[string]any
	html *template.Template
	text *texttemplate.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLayout sets the layout wrapping HTML and markdown views, e.g.
// "layouts/app.html". The layout receives the view vars plus Content
// (the rendered view) and Meta (markdown frontmatter).
func WithLayout(name string) Option {
	return func(r *Renderer) {
		r.layout = name
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs map[string]any) Option {
	return func(r *Renderer) {
		maps.Copy(r.funcs, funcs)
	}
}

// WithPolicy replaces the sanitizer policy applied to markdown output.
// Defaults to bluemonday's UGC policy.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithReload disables the template cache so edits show up without restart.
func WithReload(reload bool) Option {
	return func(r *Renderer) {
		r.reload = reload
	}
}

// New creates a Renderer over fsys.
func New(fsys fs.FS, opts ...Option) *Renderer {
	r := &Renderer{
		fs:         fsys,
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:     bluemonday.UGCPolicy(),
		components: make(map[string]ComponentFunc),
		cache:      make(map[string]*entry),
	}
	r.funcs = map[string]any{
		"markdown": r.markdownHTML,
		"date":     formatDate,
		"join":     strings.Join,
		"dict":     dict,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders the named view with vars. A name without extension is
// looked up as .html, .md and .txt, in that order, after registered
// components.
func (r *Renderer) Render(name string, vars map[string]any) (string, error) {
	return r.RenderContext(context.Background(), name, vars)
}

// RenderContext is Render with a context passed to components.
func (r *Renderer) RenderContext(ctx context.Context, name string, vars map[string]any) (string, error) {
	if fn, ok := r.components[name]; ok {
		var buf bytes.Buffer
		if err := fn(vars).Render(ctx, &buf); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
		}
		return buf.String(), nil
	}

	file, err := r.resolve(name)
	if err != nil {
		return "", err
	}
	e, err := r.load(file)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	switch e.kind {
	case kindHTML:
		err = e.html.Execute(&buf, vars)
	default:
		err = e.text.Execute(&buf, vars)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, file, err)
	}

	switch e.kind {
	case kindText:
		return buf.String(), nil
	case kindMarkdown:
		out, err := r.markdown(buf.Bytes())
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, file, err)
		}
		return r.wrap(out, e.meta, vars)
	default:
		return r.wrap(template.HTML(buf.String()), e.meta, vars)
	}
}

// Exists reports whether name resolves to a view.
func (r *Renderer) Exists(name string) bool {
	if _, ok := r.components[name]; ok {
		return true
	}
	_, err := r.resolve(name)
	return err == nil
}

func (r *Renderer) resolve(name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	candidates := []string{name}
	if path.Ext(name) == "" {
		candidates = candidates[:0]
		for _, ext := range lookupOrder {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		if st, err := fs.Stat(r.fs, c); err == nil && !st.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

func (r *Renderer) wrap(content template.HTML, meta, vars map[string]any) (string, error) {
	if r.layout == "" {
		return string(content), nil
	}
	if v, ok := vars["layout"]; ok {
		if enabled, isBool := v.(bool); isBool && !enabled {
			return string(content), nil
		}
	}

	e, err := r.load(r.layout)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return "", fmt.Errorf("%w: %s", ErrLayoutNotFound, r.layout)
		}
		return "", err
	}
	if e.kind != kindHTML {
		return "", fmt.Errorf("%w: %s is not an html template", ErrLayoutNotFound, r.layout)
	}

	data := make(map[string]any, len(vars)+2)
	maps.Copy(data, vars)
	data["Content"] = content
	data["Meta"] = meta

	var buf bytes.Buffer
	if err := e.html.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, r.layout, err)
	}
	return buf.String(), nil
}

// load returns the parsed template of file, from cache unless reloading.
func (r *Renderer) load(file string) (*entry, error) {
	if !r.reload {
		r.mu.RLock()
		e, ok := r.cache[file]
		r.mu.RUnlock()
		if ok {
			return e, nil
		}
	}

	content, err := fs.ReadFile(r.fs, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, file, err)
	}

	e := &entry{meta: map[string]any{}}
	switch strings.ToLower(path.Ext(file)) {
	case ".html", ".htm":
		e.kind = kindHTML
		e.html, err = template.New(file).Funcs(r.funcs).Parse(string(content))
	case ".md":
		e.kind = kindMarkdown
		var body []byte
		if e.meta, body, err = splitFrontmatter(content); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		e.text, err = texttemplate.New(file).Funcs(r.funcs).Parse(string(body))
	default:
		e.kind = kindText
		e.text, err = texttemplate.New(file).Funcs(r.funcs).Parse(string(content))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, file, err)
	}

	if !r.reload {
		r.mu.Lock()
		r.cache[file] = e
		r.mu.Unlock()
	}
	return e, nil
}

// markdown converts src and sanitizes the produced HTML.
func (r *Renderer) markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// markdownHTML is the "markdown" template function.
func (r *Renderer) markdownHTML(src string) (template.HTML, error) {
	return r.markdown([]byte(src))
}

// formatDate is the "date" template function. Values that are not times
// are printed as they are.
func formatDate(layout string, v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(layout)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// dict builds a map from key/value pairs, mostly to pass translation
// variables: {{.T.T "posts.by" (dict "name" .author)}}.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("view: dict expects key/value pairs")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("view: dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
