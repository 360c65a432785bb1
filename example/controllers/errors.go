package controllers

import (
	"net/http"

	"github.com/dmitrymomot/mvc"
)

// Errors renders the 404 page. The kernel answers it with 404.
type Errors struct{}

// NewErrors is the Errors controller factory.
func NewErrors() mvc.Controller { return &Errors{} }

func (e *Errors) Actions() mvc.Actions {
	return mvc.Actions{
		"notFound": func(c mvc.Context) error {
			if c.Extension() == "json" {
				return c.JSON(http.StatusNotFound, map[string]string{"error": c.T("errors.not_found")})
			}
			return c.RenderView(http.StatusNotFound, "errors/not_found", map[string]any{"path": c.Request().URL.Path})
		},
	}
}

// HandleError renders 4xx HTTP errors with the errors/http view. 404s go
// to the 404 route and everything else gets the default response.
func HandleError(c mvc.Context, err error) error {
	he := mvc.AsHTTPError(err)
	if he == nil || he.Code == http.StatusNotFound || he.Code >= http.StatusInternalServerError || c.Extension() != "html" {
		return err
	}
	return c.RenderView(he.Code, "errors/http", map[string]any{"error": he})
}
