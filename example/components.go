package main

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/mvc"
)

// httpErrorPage renders 4xx errors without the layout, so it works even
// when the layout itself is the thing that fails.
func httpErrorPage(vars map[string]any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		he, _ := vars["error"].(*mvc.HTTPError)
		if he == nil {
			he = mvc.ErrBadRequest("")
		}
		_, err := fmt.Fprintf(w, `<!doctype html><title>%d</title><h1>%d</h1><p>%s</p>`,
			he.Code, he.Code, templ.EscapeString(he.Message))
		return err
	})
}
