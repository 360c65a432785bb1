// Package view renders named templates to strings.
//
// A [Renderer] reads views from an fs.FS, usually an embed.FS:
//
//	//go:embed views
//	var views embed.FS
//
//	sub, _ := fs.Sub(views, "views")
//	r := view.New(sub, view.WithLayout("layouts/app.html"))
//	html, err := r.Render("posts/index", map[string]any{"posts": posts})
//
// The view file is picked by extension: .html files are html/template,
// .md files are text/template followed by markdown conversion
// (github.com/yuin/goldmark) and sanitizing
// (github.com/microcosm-cc/bluemonday), and everything else is
// text/template. HTML and markdown views are wrapped in the layout, which
// sees the view vars plus Content and Meta; pass "layout": false in vars
// to skip it.
//
// templ components can be registered as views with [WithComponent], and
// any view can be embedded in a templ tree with [Renderer.Component].
package view
