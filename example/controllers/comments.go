package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/mvc"
)

// Comments accepts comments on posts. New comments wait for approval.
type Comments struct{}

// NewComments is the Comments controller factory.
func NewComments() mvc.Controller { return &Comments{} }

func (cm *Comments) Actions() mvc.Actions {
	return mvc.Actions{
		"create":  cm.create,
		"approve": cm.approve,
	}
}

func (cm *Comments) create(c mvc.Context) error {
	postID := mvc.Arg[int64](c, 0)

	posts, err := c.Model("Post")
	if err != nil {
		return err
	}
	post, err := posts.Find(c, postID)
	if err != nil {
		return err
	}

	comments, err := c.Model("Comment")
	if err != nil {
		return err
	}
	comment := comments.New(map[string]any{
		"post_id":  post.ID(),
		"author":   strings.TrimSpace(c.Form("author")),
		"body":     strings.TrimSpace(c.Form("body")),
		"approved": 0,
	})

	ok, err := comment.Save(c)
	if err != nil {
		return err
	}
	if !ok {
		if c.Extension() == "json" {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": c.ErrorMessages(comment)})
		}
		return c.RenderView(http.StatusUnprocessableEntity, "comments/form", map[string]any{
			"post":    post,
			"comment": comment,
			"errors":  c.ErrorMessages(comment),
		})
	}

	if c.Extension() == "json" {
		return c.JSON(http.StatusCreated, comment.Data())
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%v", post.ID()))
}

// approve publishes every pending comment of a post in one statement.
func (cm *Comments) approve(c mvc.Context) error {
	comments, err := c.Model("Comment")
	if err != nil {
		return err
	}

	n, err := comments.Conn().Update(comments.Table()).
		Set(map[string]any{"approved": 1}).
		Where("post_id = ?", mvc.Arg[int64](c, 0)).
		MergeNextWhere(true).
		Where("approved = ?", 0).
		RowCount(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"approved": n})
}
