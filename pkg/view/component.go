package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ComponentFunc builds a templ component from view vars.
type ComponentFunc func(vars map[string]any) templ.Component

// WithComponent registers a templ component under a view name. Components
// take precedence over files of the same name.
//
//	view.WithComponent("posts/show", func(vars map[string]any) templ.Component {
//		return pages.PostShow(vars["post"].(*model.Record))
//	})
func WithComponent(name string, fn ComponentFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.components[name] = fn
		}
	}
}

// Component exposes a view as a templ component, so file views can be
// embedded in templ layouts.
func (r *Renderer) Component(name string, vars map[string]any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := r.RenderContext(ctx, name, vars)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}
