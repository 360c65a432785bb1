package model

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// snake converts "BlogPost" to "blog_post".
func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) && runes[i-1] != '_' {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// camel converts "blog_post" to "BlogPost".
func camel(s string) string {
	title := cases.Title(language.English)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, p := range parts {
		parts[i] = title.String(p)
	}
	return strings.Join(parts, "")
}

// tableName derives the conventional table of a model: "BlogPost" -> "blog_posts".
func tableName(model string) string {
	return inflection.Plural(snake(baseName(model)))
}

// foreignKey derives the conventional foreign key pointing at a model:
// "BlogPost" -> "blog_post_id".
func foreignKey(model string) string {
	return inflection.Singular(snake(baseName(model))) + "_id"
}

// modelName derives a model name from a relation name: "comments" -> "Comment".
func modelName(relation string) string {
	return camel(inflection.Singular(relation))
}

// baseName strips the namespace of "Blog.Post".
func baseName(model string) string {
	if i := strings.LastIndexByte(model, '.'); i >= 0 {
		return model[i+1:]
	}
	return model
}

// namespace returns "Blog" for "Blog.Post".
func namespace(model string) string {
	if i := strings.LastIndexByte(model, '.'); i >= 0 {
		return model[:i]
	}
	return ""
}
