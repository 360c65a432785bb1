package controllers

import (
	"net/http"

	"github.com/dmitrymomot/mvc"
)

// Pages serves the home page and static pages. Static pages are routed
// with a templated destination, so any view under pages/ has an action.
type Pages struct{}

// NewPages is the Pages controller factory.
func NewPages() mvc.Controller { return &Pages{} }

func (p *Pages) Actions() mvc.Actions {
	return mvc.Actions{
		"home":    p.home,
		"about":   p.static,
		"privacy": p.static,
	}
}

func (p *Pages) home(c mvc.Context) error {
	posts, err := c.Model("Post")
	if err != nil {
		return err
	}
	latest, err := posts.Select().OrderBy("created_at", "DESC").Limit(3).FetchAll(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, map[string]any{"posts": latest})
}

func (p *Pages) static(c mvc.Context) error {
	return c.Render(http.StatusOK, nil)
}
