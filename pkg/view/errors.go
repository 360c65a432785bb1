package view

import "errors"

var (
	ErrTemplateNotFound   = errors.New("view: template not found")
	ErrLayoutNotFound     = errors.New("view: layout not found")
	ErrRenderFailed       = errors.New("view: failed to render template")
	ErrInvalidFrontmatter = errors.New("view: invalid frontmatter")
)
