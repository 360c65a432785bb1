// Package models declares the blog models.
package models

import (
	"context"
	"strings"
	"unicode"

	"github.com/dmitrymomot/mvc/pkg/model"
)

// User writes posts.
var User = model.Definition{
	Name: "User",
	Validations: []model.Validation{
		model.Validate("name", model.Required(), model.MaxLength(80)),
		model.Validate("email", model.Required(), model.Email(), model.Unique()),
	},
	Relations: map[string]model.Relation{
		"posts": model.HasMany(),
	},
}

// Post is a blog entry. The slug is derived from the title on create.
var Post = model.Definition{
	Name:       "Post",
	Timestamps: true,
	Validations: []model.Validation{
		model.Validate("title", model.Required(), model.MaxLength(120)),
		model.Validate("slug", model.Unique()),
		model.Validate("body", model.Required(), model.MinLength(10)),
	},
	Relations: map[string]model.Relation{
		"author":   model.BelongsTo(model.Of("User"), model.ForeignKey("user_id")),
		"comments": model.HasMany(),
	},
	Filters: model.Filters{
		BeforeCreate: []model.Filter{setSlug},
	},
}

// Comment belongs to a post and waits for approval.
var Comment = model.Definition{
	Name:       "Comment",
	Timestamps: true,
	Validations: []model.Validation{
		model.Validate("author", model.Required(), model.MaxLength(80)),
		model.Validate("body", model.Required(), model.MaxLength(2000)),
	},
	Relations: map[string]model.Relation{
		"post": model.BelongsTo(),
	},
}

// All lists every blog model.
var All = []model.Definition{User, Post, Comment}

func setSlug(_ context.Context, r *model.Record) error {
	if r.Text("slug") == "" {
		r.Set("slug", Slugify(r.Text("title")))
	}
	return nil
}

// Slugify lowercases s and joins its letters and digits with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
