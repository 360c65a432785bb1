// Package controllers holds the blog controllers.
package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/mvc"
	"github.com/dmitrymomot/mvc/pkg/model"
)

// PageSize is the number of posts per index page.
const PageSize = 10

type postKey struct{}

// Posts serves the post resource.
type Posts struct{}

// NewPosts is the Posts controller factory.
func NewPosts() mvc.Controller { return &Posts{} }

func (p *Posts) Actions() mvc.Actions {
	return mvc.Actions{
		"index":   p.index,
		"archive": p.archive,
		"show":    p.show,
		"new":     p.form,
		"edit":    p.form,
		"create":  p.create,
		"save":    p.save,
		"delete":  p.confirm,
		"destroy": p.destroy,
	}
}

func (p *Posts) Filters() mvc.Filters {
	return mvc.Filters{
		Before: []mvc.Filter{
			mvc.NewFilter(p.load, mvc.Only("show", "edit", "save", "delete", "destroy")),
		},
		After: []mvc.Filter{
			mvc.NewFilter(func(c mvc.Context) error {
				c.LogInfo("post changed", "action", c.Action(), "id", c.Param("id"))
				return nil
			}, mvc.Only("create", "save", "destroy")),
		},
	}
}

// load finds the post named by the :id parameter.
func (p *Posts) load(c mvc.Context) error {
	posts, err := c.Model("Post")
	if err != nil {
		return err
	}
	post, err := posts.Find(c, mvc.Param[int64](c, "id"))
	if err != nil {
		return err
	}
	c.Set(postKey{}, post)
	return nil
}

func (p *Posts) index(c mvc.Context) error {
	posts, err := c.Model("Post")
	if err != nil {
		return err
	}

	page := max(mvc.QueryDefault(c, "page", 1), 1)
	list, err := posts.Select().
		OrderBy("created_at", "DESC").
		Limit((page-1)*PageSize, PageSize).
		FetchAll(c)
	if err != nil {
		return err
	}

	if c.Extension() == "json" {
		return c.JSON(http.StatusOK, data(list))
	}
	vars := map[string]any{"posts": list, "page": page}
	if len(list) == PageSize {
		vars["next"] = page + 1
	}
	return c.Render(http.StatusOK, vars)
}

func (p *Posts) archive(c mvc.Context) error {
	posts, err := c.Model("Post")
	if err != nil {
		return err
	}

	year := mvc.Arg[int](c, 0)
	list, err := posts.Select().
		Where("created_at >= ?", fmt.Sprintf("%04d-01-01", year)).
		MergeNextWhere(true).
		Where("created_at < ?", fmt.Sprintf("%04d-01-01", year+1)).
		OrderBy("created_at", "ASC").
		FetchAll(c)
	if err != nil {
		return err
	}
	return c.RenderView(http.StatusOK, "posts/index", map[string]any{"posts": list, "year": year})
}

func (p *Posts) show(c mvc.Context) error {
	post := mvc.ContextValue[*model.Record](c, postKey{})

	comments, err := post.HasMany("comments")
	if err != nil {
		return err
	}
	approved, err := comments.Where("approved = ?", 1).OrderBy("id", "ASC").FetchAll(c)
	if err != nil {
		return err
	}

	author, err := post.BelongsTo(c, "author")
	if err != nil {
		return err
	}

	if c.Extension() == "json" {
		out := post.Data()
		out["comments"] = data(approved)
		return c.JSON(http.StatusOK, out)
	}
	return c.Render(http.StatusOK, map[string]any{
		"post":     post,
		"author":   author,
		"comments": approved,
	})
}

// form renders the post form for new and edit.
func (p *Posts) form(c mvc.Context) error {
	post := mvc.ContextValue[*model.Record](c, postKey{})
	if post == nil {
		posts, err := c.Model("Post")
		if err != nil {
			return err
		}
		post = posts.New(nil)
	}
	return c.RenderView(http.StatusOK, "posts/form", map[string]any{"post": post})
}

func (p *Posts) create(c mvc.Context) error {
	posts, err := c.Model("Post")
	if err != nil {
		return err
	}
	return p.persist(c, posts.New(nil))
}

func (p *Posts) save(c mvc.Context) error {
	return p.persist(c, mvc.ContextValue[*model.Record](c, postKey{}))
}

func (p *Posts) persist(c mvc.Context, post *model.Record) error {
	post.Fill(map[string]any{
		"title": strings.TrimSpace(c.Form("title")),
		"body":  strings.TrimSpace(c.Form("body")),
	})
	if uid := mvc.QueryDefault[int64](c, "user", 0); uid > 0 {
		post.Set("user_id", uid)
	}

	ok, err := post.Save(c)
	if err != nil {
		return err
	}
	if !ok {
		return c.RenderView(http.StatusUnprocessableEntity, "posts/form", map[string]any{
			"post":   post,
			"errors": c.ErrorMessages(post),
		})
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%v", post.ID()))
}

func (p *Posts) confirm(c mvc.Context) error {
	return c.Render(http.StatusOK, map[string]any{"post": mvc.ContextValue[*model.Record](c, postKey{})})
}

func (p *Posts) destroy(c mvc.Context) error {
	post := mvc.ContextValue[*model.Record](c, postKey{})
	if _, err := post.Delete(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/posts")
}

func data(records []*model.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.Data()
	}
	return out
}
