// Package i18n provides message catalogs for localized applications.
//
// A [Catalog] is built once at boot from maps or YAML files and is
// read-only afterwards:
//
//	//go:embed translations
//	var translations embed.FS
//
//	sub, _ := fs.Sub(translations, "translations")
//	catalog, err := i18n.New(
//		i18n.WithDefaultLanguage("en"),
//		i18n.WithYAMLDir(sub),
//	)
//
// Nested keys are flattened with dots and placeholders use {{name}}:
//
//	# en.yaml
//	validation:
//	  required: "{{field}} is required"
//	posts:
//	  count:
//	    one: "{{count}} post"
//	    other: "{{count}} posts"
//
//	catalog.T("en", "validation.required", i18n.M{"field": "title"})
//	catalog.Tn("en", "posts.count", 3)
//
// Lookups fall back from a regional tag to its base language and then to
// the default language; a missing key is returned unchanged. Plural
// categories follow CLDR rules from golang.org/x/text/feature/plural.
//
// [Catalog.Match] picks a supported language for an Accept-Language header
// and [Catalog.For] binds a [Translator] to it.
package i18n
